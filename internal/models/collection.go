// Package models defines the time-tracking entities, the logical document
// exchanged with the store, and the at-rest record variants.
package models

import "fmt"

// Collection names one of the identifier-assigned record collections.
type Collection string

const (
	Activities Collection = "activities"
	Categories Collection = "categories"
	Tags       Collection = "tags"
)

// AllCollections lists the identifier-assigned collections in dependency
// order: categories and tags before the activities that reference them.
var AllCollections = []Collection{Categories, Tags, Activities}

// Validate reports whether c is a known collection.
func (c Collection) Validate() error {
	switch c {
	case Activities, Categories, Tags:
		return nil
	}
	return fmt.Errorf("unknown collection %q", string(c))
}
