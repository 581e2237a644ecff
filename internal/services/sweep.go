package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/timekeeper/internal/cryptox"
	"github.com/dmitrijs2005/timekeeper/internal/models"
)

type sweepDirection int

const (
	sweepEncrypt sweepDirection = iota
	sweepDecrypt
)

func (d sweepDirection) String() string {
	if d == sweepEncrypt {
		return "encrypt"
	}
	return "decrypt"
}

// CollectionSweep lists the record ids a sweep touched in one collection.
// Skipped records were already in the target form.
type CollectionSweep struct {
	Succeeded []int64
	Skipped   []int64
	Failed    []int64
}

// SweepReport summarizes one encrypt or decrypt pass over all collections.
type SweepReport struct {
	RunID       string
	Collections map[models.Collection]*CollectionSweep
}

func newSweepReport() SweepReport {
	r := SweepReport{
		RunID:       uuid.NewString(),
		Collections: make(map[models.Collection]*CollectionSweep, len(models.AllCollections)),
	}
	for _, c := range models.AllCollections {
		r.Collections[c] = &CollectionSweep{}
	}
	return r
}

func (r SweepReport) count(f func(*CollectionSweep) []int64) int {
	n := 0
	for _, cs := range r.Collections {
		n += len(f(cs))
	}
	return n
}

func (r SweepReport) SucceededCount() int {
	return r.count(func(cs *CollectionSweep) []int64 { return cs.Succeeded })
}

func (r SweepReport) SkippedCount() int {
	return r.count(func(cs *CollectionSweep) []int64 { return cs.Skipped })
}

func (r SweepReport) FailedCount() int {
	return r.count(func(cs *CollectionSweep) []int64 { return cs.Failed })
}

// sweep converts every record to the form dir asks for. It first enumerates
// all collections, then transforms record by record; each write is atomic on
// its own but the pass as a whole is not. Records already in the target form
// are skipped, so running it twice is harmless. Callers hold c.mu for writing.
func (c *Coordinator) sweep(ctx context.Context, dir sweepDirection) (SweepReport, error) {
	report := newSweepReport()
	log := c.log.With("sweep_id", report.RunID, "direction", dir.String())

	pending := make(map[models.Collection][]models.StoredRecord, len(models.AllCollections))
	for _, col := range models.AllCollections {
		recs, err := c.records.GetAll(ctx, col)
		if err != nil {
			return report, err
		}
		pending[col] = recs
	}

	for _, col := range models.AllCollections {
		cs := report.Collections[col]
		for _, rec := range pending[col] {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			id := rec.RecordID()
			next, skip, err := c.convert(rec, dir)
			if skip {
				cs.Skipped = append(cs.Skipped, id)
				continue
			}
			if err == nil {
				err = c.records.Update(ctx, col, id, next)
			}
			if err != nil {
				log.Error(ctx, "record not converted", "collection", col, "id", id, "error", err)
				cs.Failed = append(cs.Failed, id)
				continue
			}
			cs.Succeeded = append(cs.Succeeded, id)
		}
	}

	log.Info(ctx, "sweep finished",
		"succeeded", report.SucceededCount(),
		"skipped", report.SkippedCount(),
		"failed", report.FailedCount())
	return report, nil
}

func (c *Coordinator) convert(rec models.StoredRecord, dir sweepDirection) (models.StoredRecord, bool, error) {
	switch r := rec.(type) {
	case models.PlainRecord:
		if dir == sweepDecrypt {
			return nil, true, nil
		}
		token, err := cryptox.Encrypt(r.Data, c.key)
		if err != nil {
			return nil, false, err
		}
		return models.EnvelopeRecord{ID: r.ID, Ciphertext: token}, false, nil
	case models.EnvelopeRecord:
		if dir == sweepEncrypt {
			return nil, true, nil
		}
		var data json.RawMessage
		if err := cryptox.Decrypt(r.Ciphertext, c.key, &data); err != nil {
			return nil, false, err
		}
		return models.PlainRecord{ID: r.ID, Data: data}, false, nil
	}
	return nil, true, nil
}
