package grid

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"imsystem/pkg/models"
)

// DefaultLocale is the collation locale used by Sort.
var DefaultLocale = language.English

// Sort orders records by the sort state using DefaultLocale. See SortLocale.
func Sort(records []models.Record, s SortState) []models.Record {
	return SortLocale(records, s, DefaultLocale)
}

// SortLocale returns a sorted copy of records. Equal keys keep their input
// order. Two numeric values compare numerically; anything else compares
// as strings under the collation rules of tag. When s is inactive the
// input is returned as is.
func SortLocale(records []models.Record, s SortState, tag language.Tag) []models.Record {
	if !s.Active() {
		return records
	}

	// collate.Collator keeps internal buffers, so each sort gets its own.
	c := collate.New(tag)
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b models.Record) int {
		x, y := field(a, s.Key), field(b, s.Key)
		if s.Direction == Descending {
			x, y = y, x
		}
		return compareValues(c, x, y)
	})
	return sorted
}

func compareValues(c *collate.Collator, a, b value) int {
	if a.numeric && b.numeric {
		return cmp.Compare(a.num, b.num)
	}
	return c.CompareString(a.String(), b.String())
}
