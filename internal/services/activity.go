package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// ActivityFilter narrows List. Zero fields do not filter.
//
// From and To bound the activity interval: an activity matches when it starts
// at or after From and ends at or before To. Search matches the description,
// the category name or any tag name, ignoring case.
type ActivityFilter struct {
	CategoryID int64
	From       time.Time
	To         time.Time
	Search     string
}

// ActivityService manages tracked time intervals.
type ActivityService interface {
	Add(ctx context.Context, a models.Activity) (models.Activity, error)
	Update(ctx context.Context, a models.Activity) error
	Get(ctx context.Context, id int64) (*models.Activity, error)
	List(ctx context.Context, f ActivityFilter) ([]models.Activity, error)
	ByCategory(ctx context.Context, categoryID int64) ([]models.Activity, error)
	Delete(ctx context.Context, id int64) error
}

type activityService struct {
	store *Coordinator
	now   func() time.Time
}

func NewActivityService(store *Coordinator) ActivityService {
	return &activityService{store: store, now: time.Now}
}

// NormalizeActivity checks a and brings it into stored form: trimmed
// description, UTC timestamps, deduplicated tags. Every activity write goes
// through it, including backup restores.
func NormalizeActivity(a models.Activity) (models.Activity, error) {
	a.Description = strings.TrimSpace(a.Description)
	if a.Description == "" {
		return a, fmt.Errorf("%w: description must not be empty", common.ErrValidation)
	}
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return a, fmt.Errorf("%w: start and end time are required", common.ErrValidation)
	}
	if !a.EndTime.After(a.StartTime) {
		return a, fmt.Errorf("%w: end time must be after start time", common.ErrValidation)
	}
	a.StartTime = a.StartTime.UTC()
	a.EndTime = a.EndTime.UTC()
	a.Tags = dedupeIDs(a.Tags)
	return a, nil
}

// Add stores a new activity stamped with the creation time and returns it
// with its identifier.
func (s *activityService) Add(ctx context.Context, a models.Activity) (models.Activity, error) {
	a, err := NormalizeActivity(a)
	if err != nil {
		return models.Activity{}, err
	}
	a.ID = 0
	a.CreatedAt = s.now().UTC()

	doc, err := models.Encode(0, a)
	if err != nil {
		return models.Activity{}, err
	}
	id, err := s.store.Add(ctx, models.Activities, doc.Data)
	if err != nil {
		return models.Activity{}, err
	}
	a.ID = id
	return a, nil
}

// Update replaces the activity with a.ID. The original creation time is kept;
// if the activity does not exist yet it is created with the current time.
func (s *activityService) Update(ctx context.Context, a models.Activity) error {
	if a.ID <= 0 {
		return fmt.Errorf("%w: activity id must be positive", common.ErrValidation)
	}
	a, err := NormalizeActivity(a)
	if err != nil {
		return err
	}

	existing, err := s.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.CreatedAt.IsZero() {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = s.now().UTC()
	}

	doc, err := models.Encode(a.ID, a)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, models.Activities, a.ID, doc.Data)
}

func (s *activityService) Get(ctx context.Context, id int64) (*models.Activity, error) {
	return getOne[models.Activity](ctx, s.store, models.Activities, id)
}

// List returns the activities matching f, most recent start first.
//
// A category filter is answered by ByCategory instead of a full scan.
func (s *activityService) List(ctx context.Context, f ActivityFilter) ([]models.Activity, error) {
	var all []models.Activity
	if f.CategoryID != 0 {
		var err error
		if all, err = s.ByCategory(ctx, f.CategoryID); err != nil {
			return nil, err
		}
	} else {
		docs, err := s.store.GetAll(ctx, models.Activities)
		if err != nil {
			return nil, err
		}
		all = decodeAll[models.Activity](docs)
	}

	var categories map[int64]string
	var tags map[int64]string
	if strings.TrimSpace(f.Search) != "" {
		var err error
		if categories, err = s.names(ctx, models.Categories); err != nil {
			return nil, err
		}
		if tags, err = s.names(ctx, models.Tags); err != nil {
			return nil, err
		}
	}

	out := make([]models.Activity, 0, len(all))
	for _, a := range all {
		if !f.From.IsZero() && a.StartTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.EndTime.After(f.To) {
			continue
		}
		if categories != nil && !matchesSearch(a, f.Search, categories, tags) {
			continue
		}
		out = append(out, a)
	}

	sortByStartDesc(out)
	return out, nil
}

func matchesSearch(a models.Activity, term string, categories, tags map[int64]string) bool {
	if containsFold(a.Description, term) {
		return true
	}
	if name, ok := categories[a.CategoryID]; ok && containsFold(name, term) {
		return true
	}
	for _, id := range a.Tags {
		if name, ok := tags[id]; ok && containsFold(name, term) {
			return true
		}
	}
	return false
}

// names maps ids to the "name" field of every readable record in col.
func (s *activityService) names(ctx context.Context, col models.Collection) (map[int64]string, error) {
	docs, err := s.store.GetAll(ctx, col)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(docs))
	for _, t := range decodeAll[models.Tag](docs) {
		out[t.ID] = t.Name
	}
	return out, nil
}

// ByCategory returns the activities filed under categoryID, most recent first.
func (s *activityService) ByCategory(ctx context.Context, categoryID int64) ([]models.Activity, error) {
	docs, err := s.store.QueryByField(ctx, models.Activities, "categoryId", categoryID)
	if err != nil {
		return nil, err
	}
	out := decodeAll[models.Activity](docs)
	sortByStartDesc(out)
	return out, nil
}

func (s *activityService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, models.Activities, id)
}

func sortByStartDesc(as []models.Activity) {
	sort.SliceStable(as, func(i, j int) bool {
		if as[i].StartTime.Equal(as[j].StartTime) {
			return as[i].ID > as[j].ID
		}
		return as[i].StartTime.After(as[j].StartTime)
	})
}
