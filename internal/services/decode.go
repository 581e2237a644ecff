package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/models"
)

type entity[T any] interface {
	*T
	SetID(int64)
}

// decodeAll decodes docs into entities, dropping documents that do not parse.
func decodeAll[T any, PT entity[T]](docs []models.Document) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := models.Decode[T, PT](d)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func getOne[T any, PT entity[T]](ctx context.Context, store *Coordinator, col models.Collection, id int64) (*T, error) {
	doc, err := store.Get(ctx, col, id)
	if err != nil || doc == nil {
		return nil, err
	}
	v, err := models.Decode[T, PT](*doc)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s[%d]: %w", common.ErrStoreRead, col, id, err)
	}
	return &v, nil
}

// dedupeIDs drops repeated ids, keeping the first occurrence.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
