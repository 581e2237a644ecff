// Package records provides durable keyed storage for the identifier-assigned
// collections (activities, categories, tags).
//
// # Data Model
//
// Every collection is a table of (id, encrypted, data). The id is assigned by
// SQLite AUTOINCREMENT, so identifiers ascend and are never reused after a
// delete. data holds entity JSON for plain rows and the ciphertext token for
// envelope rows; encrypted tells the two apart and is surfaced to callers as
// the models.PlainRecord / models.EnvelopeRecord variants.
//
// The repository is unaware of keys: wrapping and unwrapping belongs to the
// encryption coordinator in internal/services.
//
// Typical Usage
//
//	repo := records.NewSQLiteRepository(db)
//	id, _ := repo.Add(ctx, models.Tags, models.PlainRecord{Data: data})
//	rec, _ := repo.Get(ctx, models.Tags, id)
//	_ = repo.Update(ctx, models.Tags, id, models.EnvelopeRecord{Ciphertext: token})
//	_ = repo.Delete(ctx, models.Tags, id)
package records
