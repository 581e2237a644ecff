package services

import (
	"strings"

	"golang.org/x/text/cases"
)

// fold normalizes s for case-insensitive comparison. A Caser keeps state, so
// each call gets its own.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}
