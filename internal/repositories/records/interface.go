package records

import (
	"context"

	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// Repository describes keyed persistence for one of the record collections.
type Repository interface {
	// Add stores rec under a fresh identifier and returns it. rec's own ID
	// is ignored.
	Add(ctx context.Context, c models.Collection, rec models.StoredRecord) (int64, error)

	// Get returns the record with the given id, or nil when absent.
	Get(ctx context.Context, c models.Collection, id int64) (models.StoredRecord, error)

	// GetAll returns every record of the collection.
	GetAll(ctx context.Context, c models.Collection) ([]models.StoredRecord, error)

	// Update replaces the record at id (creating it if absent). The id
	// argument wins over rec's own ID.
	Update(ctx context.Context, c models.Collection, id int64, rec models.StoredRecord) error

	// Delete removes the record at id. Deleting an absent id succeeds.
	Delete(ctx context.Context, c models.Collection, id int64) error

	// Clear removes all records of the given collections atomically.
	Clear(ctx context.Context, cs ...models.Collection) error
}
