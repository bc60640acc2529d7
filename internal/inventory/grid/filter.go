package grid

import (
	"strings"

	"imsystem/pkg/models"
)

// Filter returns the records matching both the department and the search
// predicate, in their original order. The input slice is not modified.
func Filter(records []models.Record, c FilterCriteria) []models.Record {
	search := strings.ToLower(c.Search)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if matchesDepartment(r, c.Department) && matchesSearch(r, search) {
			out = append(out, r)
		}
	}
	return out
}

func matchesDepartment(r models.Record, department string) bool {
	return department == "" || department == AllDepartments || r.DepartmentValue() == department
}

// matchesSearch expects needle to be lower-cased already.
func matchesSearch(r models.Record, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.ItemCodeValue()), needle) ||
		strings.Contains(strings.ToLower(r.DescriptionValue()), needle)
}

// Departments returns "All" followed by every distinct non-empty
// department in order of first appearance.
func Departments(records []models.Record) []string {
	seen := map[string]struct{}{AllDepartments: {}}
	out := []string{AllDepartments}
	for _, r := range records {
		d := r.DepartmentValue()
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
