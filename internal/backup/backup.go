// Package backup moves the whole logical dataset in and out of timekeeper as
// a single JSON document:
//
//	{"activities": [...], "categories": [...], "tags": [...]}
//
// Export reads through the Coordinator, so an encrypted store exports
// plaintext. Import validates the complete document before touching the
// store, then replaces all three collections.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/logging"
	"github.com/dmitrijs2005/timekeeper/internal/models"
	"github.com/dmitrijs2005/timekeeper/internal/services"
)

// ImportFailure is a record that passed validation but could not be written.
type ImportFailure struct {
	Collection models.Collection
	ID         int64
	Err        error
}

// ImportReport summarizes an Import. Dangling counts are references to
// categories or tags that are not part of the imported document; they are
// kept as-is.
type ImportReport struct {
	Categories int
	Tags       int
	Activities int

	DanglingCategoryRefs int
	DanglingTagRefs      int

	Failed []ImportFailure
}

type Service struct {
	store *services.Coordinator
	log   logging.Logger
	now   func() time.Time
}

func NewService(store *services.Coordinator, log logging.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Export collects every readable record of the three collections.
func (s *Service) Export(ctx context.Context) (models.Backup, error) {
	activities, err := exportCollection[models.Activity](ctx, s.store, models.Activities)
	if err != nil {
		return models.Backup{}, err
	}
	categories, err := exportCollection[models.Category](ctx, s.store, models.Categories)
	if err != nil {
		return models.Backup{}, err
	}
	tags, err := exportCollection[models.Tag](ctx, s.store, models.Tags)
	if err != nil {
		return models.Backup{}, err
	}
	return models.Backup{Activities: &activities, Categories: &categories, Tags: &tags}, nil
}

func exportCollection[T any, PT interface {
	*T
	SetID(int64)
}](ctx context.Context, store *services.Coordinator, col models.Collection) ([]T, error) {
	docs, err := store.GetAll(ctx, col)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := models.Decode[T, PT](d)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s[%d]: %w", common.ErrStoreRead, col, d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteTo writes the export document to w as indented JSON.
func (s *Service) WriteTo(ctx context.Context, w io.Writer) error {
	b, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

// Decode parses and validates an export document. All three arrays must be
// present, every element must parse and pass the same checks as a regular
// write, and positive ids must be unique within each array; otherwise
// common.ErrImport is returned naming the offending element. Activities come
// back normalized (UTC times, deduplicated tags).
func Decode(r io.Reader) (models.Backup, error) {
	var b models.Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return models.Backup{}, fmt.Errorf("%w: malformed document: %w", common.ErrImport, err)
	}
	switch {
	case b.Activities == nil:
		return models.Backup{}, fmt.Errorf("%w: missing activities array", common.ErrImport)
	case b.Categories == nil:
		return models.Backup{}, fmt.Errorf("%w: missing categories array", common.ErrImport)
	case b.Tags == nil:
		return models.Backup{}, fmt.Errorf("%w: missing tags array", common.ErrImport)
	}
	if err := validate(&b); err != nil {
		return models.Backup{}, err
	}
	return b, nil
}

func validate(b *models.Backup) error {
	seen := make(map[int64]struct{}, len(*b.Categories))
	for i, c := range *b.Categories {
		if err := checkID(seen, models.Categories, i, c.ID); err != nil {
			return err
		}
		if err := services.ValidateCategory(c); err != nil {
			return invalid(models.Categories, i, c.ID, err)
		}
	}

	seen = make(map[int64]struct{}, len(*b.Tags))
	for i, t := range *b.Tags {
		if err := checkID(seen, models.Tags, i, t.ID); err != nil {
			return err
		}
		if err := services.ValidateTag(t); err != nil {
			return invalid(models.Tags, i, t.ID, err)
		}
	}

	seen = make(map[int64]struct{}, len(*b.Activities))
	acts := *b.Activities
	for i, a := range acts {
		if err := checkID(seen, models.Activities, i, a.ID); err != nil {
			return err
		}
		n, err := services.NormalizeActivity(a)
		if err != nil {
			return invalid(models.Activities, i, a.ID, err)
		}
		acts[i] = n
	}
	return nil
}

func checkID(seen map[int64]struct{}, col models.Collection, i int, id int64) error {
	if id <= 0 {
		return nil
	}
	if _, dup := seen[id]; dup {
		return fmt.Errorf("%w: %s[%d]: duplicate id %d", common.ErrImport, col, i, id)
	}
	seen[id] = struct{}{}
	return nil
}

func invalid(col models.Collection, i int, id int64, err error) error {
	return fmt.Errorf("%w: %s[%d] (id %d): %w", common.ErrImport, col, i, id, err)
}

// Import replaces the store contents with the document read from r.
//
// Nothing is modified unless the whole document validates. Activities without
// a creation time get the import time. Records are then
// written categories first, then tags, then activities, each at its exported
// id; records without an id get a fresh one. Write failures after the clear
// are not rolled back: they are collected in the report and the import goes
// on.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	b, err := Decode(r)
	if err != nil {
		return ImportReport{}, err
	}

	if err := s.store.Clear(ctx, models.AllCollections...); err != nil {
		return ImportReport{}, err
	}

	var report ImportReport
	categories := make(map[int64]struct{}, len(*b.Categories))
	tags := make(map[int64]struct{}, len(*b.Tags))

	for _, c := range *b.Categories {
		if id, ok := s.restore(ctx, &report, models.Categories, c.ID, c); ok {
			categories[id] = struct{}{}
			report.Categories++
		}
	}
	for _, t := range *b.Tags {
		if id, ok := s.restore(ctx, &report, models.Tags, t.ID, t); ok {
			tags[id] = struct{}{}
			report.Tags++
		}
	}
	now := s.now().UTC()
	for _, a := range *b.Activities {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if _, ok := categories[a.CategoryID]; !ok && a.CategoryID != 0 {
			report.DanglingCategoryRefs++
		}
		for _, id := range a.Tags {
			if _, ok := tags[id]; !ok {
				report.DanglingTagRefs++
			}
		}
		if _, ok := s.restore(ctx, &report, models.Activities, a.ID, a); ok {
			report.Activities++
		}
	}

	s.log.Info(ctx, "import finished",
		"categories", report.Categories,
		"tags", report.Tags,
		"activities", report.Activities,
		"dangling_category_refs", report.DanglingCategoryRefs,
		"dangling_tag_refs", report.DanglingTagRefs,
		"failed", len(report.Failed))
	return report, nil
}

func (s *Service) restore(ctx context.Context, report *ImportReport, col models.Collection, id int64, v any) (int64, bool) {
	doc, err := models.Encode(id, v)
	if err == nil {
		if id > 0 {
			err = s.store.Update(ctx, col, id, doc.Data)
		} else {
			id, err = s.store.Add(ctx, col, doc.Data)
		}
	}
	if err != nil {
		s.log.Warn(ctx, "import record failed", "collection", col, "id", id, "error", err)
		report.Failed = append(report.Failed, ImportFailure{Collection: col, ID: id, Err: err})
		return 0, false
	}
	return id, true
}
