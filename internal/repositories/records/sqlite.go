package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/dbx"
	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// table maps a collection to its table name. Only known collections pass,
// which keeps the name safe to interpolate into SQL.
func table(c models.Collection) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return string(c), nil
}

// columns flattens a stored record into (encrypted, data).
func columns(rec models.StoredRecord) (int, string, error) {
	switch r := rec.(type) {
	case models.PlainRecord:
		if !json.Valid(r.Data) {
			return 0, "", errors.New("plain record data is not valid JSON")
		}
		return 0, string(r.Data), nil
	case models.EnvelopeRecord:
		if r.Ciphertext == "" {
			return 0, "", errors.New("envelope record has empty ciphertext")
		}
		return 1, r.Ciphertext, nil
	default:
		return 0, "", fmt.Errorf("unsupported record type %T", rec)
	}
}

func scanRecord(id int64, encrypted bool, data string) models.StoredRecord {
	if encrypted {
		return models.EnvelopeRecord{ID: id, Ciphertext: data}
	}
	return models.PlainRecord{ID: id, Data: json.RawMessage(data)}
}

// Add inserts rec and returns the identifier SQLite assigned.
func (r *SQLiteRepository) Add(ctx context.Context, c models.Collection, rec models.StoredRecord) (int64, error) {
	t, err := table(c)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}
	enc, data, err := columns(rec)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO `+t+` (encrypted, data) VALUES (?, ?)`, enc, data)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert into %s: %w", common.ErrStoreWrite, t, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get inserted id: %w", common.ErrStoreWrite, err)
	}
	return id, nil
}

// Get returns the record at id or (nil, nil) when there is none.
func (r *SQLiteRepository) Get(ctx context.Context, c models.Collection, id int64) (models.StoredRecord, error) {
	t, err := table(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreRead, err)
	}

	var (
		encrypted bool
		data      string
	)
	err = r.db.QueryRowContext(ctx, `SELECT encrypted, data FROM `+t+` WHERE id = ?`, id).Scan(&encrypted, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get %s[%d]: %w", common.ErrStoreRead, t, id, err)
	}
	return scanRecord(id, encrypted, data), nil
}

// GetAll lists every record of the collection ordered by id.
func (r *SQLiteRepository) GetAll(ctx context.Context, c models.Collection) ([]models.StoredRecord, error) {
	t, err := table(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreRead, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, encrypted, data FROM `+t+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to select %s: %w", common.ErrStoreRead, t, err)
	}
	defer rows.Close()

	result := make([]models.StoredRecord, 0)
	for rows.Next() {
		var (
			id        int64
			encrypted bool
			data      string
		)
		if err := rows.Scan(&id, &encrypted, &data); err != nil {
			return nil, fmt.Errorf("%w: failed to scan %s row: %w", common.ErrStoreRead, t, err)
		}
		result = append(result, scanRecord(id, encrypted, data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate %s rows: %w", common.ErrStoreRead, t, err)
	}
	return result, nil
}

// Update upserts rec at id. AUTOINCREMENT bookkeeping moves past explicit ids,
// so a later Add never reuses them.
func (r *SQLiteRepository) Update(ctx context.Context, c models.Collection, id int64, rec models.StoredRecord) error {
	t, err := table(c)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}
	if id <= 0 {
		return fmt.Errorf("%w: invalid id %d", common.ErrStoreWrite, id)
	}
	enc, data, err := columns(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}

	query := `INSERT INTO ` + t + ` (id, encrypted, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET encrypted = excluded.encrypted, data = excluded.data`
	if _, err := r.db.ExecContext(ctx, query, id, enc, data); err != nil {
		return fmt.Errorf("%w: failed to update %s[%d]: %w", common.ErrStoreWrite, t, id, err)
	}
	return nil
}

// Delete removes the record at id; absent ids are not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, c models.Collection, id int64) error {
	t, err := table(c)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+t+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: failed to delete %s[%d]: %w", common.ErrStoreWrite, t, id, err)
	}
	return nil
}

// Clear empties the given collections in one transaction. Identifier
// sequences are kept, so ids handed out before the clear stay retired.
func (r *SQLiteRepository) Clear(ctx context.Context, cs ...models.Collection) error {
	tables := make([]string, 0, len(cs))
	for _, c := range cs {
		t, err := table(c)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
		}
		tables = append(tables, t)
	}

	err := dbx.InTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, t := range tables {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
				return fmt.Errorf("failed to clear %s: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
	}
	return nil
}
