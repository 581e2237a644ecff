package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/models"
)

// DefaultCategories are created by SeedDefaults on an empty store.
var DefaultCategories = []models.Category{
	{Name: "Work", Color: "#4285f4"},
	{Name: "Study", Color: "#34a853"},
	{Name: "Personal", Color: "#fbbc05"},
	{Name: "Exercise", Color: "#ea4335"},
	{Name: "Entertainment", Color: "#9c27b0"},
}

// CategoryService manages activity categories.
type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Add(ctx context.Context, name, color string) (models.Category, error)
	Update(ctx context.Context, c models.Category) error
	Delete(ctx context.Context, id int64) error
	SeedDefaults(ctx context.Context) (int, error)
}

type categoryService struct {
	store *Coordinator
}

func NewCategoryService(store *Coordinator) CategoryService {
	return &categoryService{store: store}
}

// List returns all categories ordered by name.
func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	docs, err := s.store.GetAll(ctx, models.Categories)
	if err != nil {
		return nil, err
	}
	cats := decodeAll[models.Category](docs)
	sort.SliceStable(cats, func(i, j int) bool { return fold(cats[i].Name) < fold(cats[j].Name) })
	return cats, nil
}

func (s *categoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	return getOne[models.Category](ctx, s.store, models.Categories, id)
}

// FindByName returns the first category whose name matches ignoring case, or
// nil.
func (s *categoryService) FindByName(ctx context.Context, name string) (*models.Category, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	want := fold(name)
	for i := range cats {
		if fold(cats[i].Name) == want {
			return &cats[i], nil
		}
	}
	return nil, nil
}

// ValidateCategory reports a category that cannot be stored.
func ValidateCategory(c models.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name must not be empty", common.ErrValidation)
	}
	return nil
}

func (s *categoryService) Add(ctx context.Context, name, color string) (models.Category, error) {
	c := models.Category{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := ValidateCategory(c); err != nil {
		return models.Category{}, err
	}

	doc, err := models.Encode(0, c)
	if err != nil {
		return models.Category{}, err
	}
	id, err := s.store.Add(ctx, models.Categories, doc.Data)
	if err != nil {
		return models.Category{}, err
	}
	c.ID = id
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, c models.Category) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: category id must be positive", common.ErrValidation)
	}
	if err := ValidateCategory(c); err != nil {
		return err
	}
	doc, err := models.Encode(c.ID, c)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, models.Categories, c.ID, doc.Data)
}

// Delete removes the category. Activities pointing at it keep the dangling id.
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, models.Categories, id)
}

// SeedDefaults adds DefaultCategories when the store has no categories and
// reports how many were created.
func (s *categoryService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.store.GetAll(ctx, models.Categories)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, c := range DefaultCategories {
		if _, err := s.Add(ctx, c.Name, c.Color); err != nil {
			return i, err
		}
	}
	return len(DefaultCategories), nil
}
