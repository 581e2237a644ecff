package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// TagService manages free-form activity labels. Names are matched
// case-insensitively; the store itself does not enforce uniqueness.
type TagService interface {
	List(ctx context.Context) ([]models.Tag, error)
	Get(ctx context.Context, id int64) (*models.Tag, error)
	FindOrCreate(ctx context.Context, name string) (models.Tag, error)
	ResolveNames(ctx context.Context, names []string) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

type tagService struct {
	store *Coordinator
}

func NewTagService(store *Coordinator) TagService {
	return &tagService{store: store}
}

// List returns all tags ordered by name.
func (s *tagService) List(ctx context.Context) ([]models.Tag, error) {
	docs, err := s.store.GetAll(ctx, models.Tags)
	if err != nil {
		return nil, err
	}
	tags := decodeAll[models.Tag](docs)
	sort.SliceStable(tags, func(i, j int) bool { return fold(tags[i].Name) < fold(tags[j].Name) })
	return tags, nil
}

func (s *tagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	return getOne[models.Tag](ctx, s.store, models.Tags, id)
}

// ValidateTag reports a tag that cannot be stored.
func ValidateTag(t models.Tag) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tag name must not be empty", common.ErrValidation)
	}
	return nil
}

// FindOrCreate returns the tag whose name matches name ignoring case, adding
// a new one when none does.
func (s *tagService) FindOrCreate(ctx context.Context, name string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if err := ValidateTag(models.Tag{Name: name}); err != nil {
		return models.Tag{}, err
	}

	tags, err := s.List(ctx)
	if err != nil {
		return models.Tag{}, err
	}
	want := fold(name)
	for _, t := range tags {
		if fold(t.Name) == want {
			return t, nil
		}
	}

	tag := models.Tag{Name: name}
	doc, err := models.Encode(0, tag)
	if err != nil {
		return models.Tag{}, err
	}
	id, err := s.store.Add(ctx, models.Tags, doc.Data)
	if err != nil {
		return models.Tag{}, err
	}
	tag.ID = id
	return tag, nil
}

// ResolveNames maps names to tag ids, creating missing tags. Blank names are
// ignored and the result has no duplicates.
func (s *tagService) ResolveNames(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := s.FindOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return dedupeIDs(ids), nil
}

func (s *tagService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, models.Tags, id)
}
