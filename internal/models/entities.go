package models

import (
	"encoding/json"
	"time"
)

// Activity is a tracked time interval.
type Activity struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	CategoryID  int64     `json:"categoryId"`
	Tags        []int64   `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Duration is EndTime minus StartTime.
func (a Activity) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Category groups activities; Color is a display token such as "#4285f4".
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Tag is a free-form label attached to activities.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (a *Activity) SetID(id int64) { a.ID = id }
func (c *Category) SetID(id int64) { c.ID = id }
func (t *Tag) SetID(id int64)      { t.ID = id }

// Decode unmarshals a document into T and stamps the store identifier on it,
// overriding whatever id the JSON carried.
func Decode[T any, PT interface {
	*T
	SetID(int64)
}](doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, err
	}
	PT(&v).SetID(doc.ID)
	return v, nil
}

// Encode marshals an entity into a document.
func Encode[T any](id int64, v T) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: b}, nil
}
