package models

// Backup is the portable whole-database snapshot. Pointers distinguish a
// missing array from an empty one during import validation.
type Backup struct {
	Activities *[]Activity `json:"activities"`
	Categories *[]Category `json:"categories"`
	Tags       *[]Tag      `json:"tags"`
}
