package grid

// AllDepartments is the department filter value that disables the
// department predicate.
const AllDepartments = "All"

// PageSize is the fixed number of rows per page.
const PageSize = 100

type Direction string

const (
	Unsorted   Direction = ""
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type FilterCriteria struct {
	Department string `json:"department"`
	Search     string `json:"search"`
}

// SortState is unsorted when Key is empty.
type SortState struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

func (s SortState) Active() bool {
	return s.Key != "" && s.Direction != Unsorted
}

// GridState holds every user-controlled input of the derivation pipeline.
// It is a value; reducers return a new state and never mutate their input.
type GridState struct {
	Filter FilterCriteria `json:"filter"`
	Sort   SortState      `json:"sort"`
	Page   int            `json:"page"`
}

func DefaultState() GridState {
	return GridState{
		Filter: FilterCriteria{Department: AllDepartments},
		Page:   1,
	}
}

// Reset is the logout transition: filter, sort and page go back to their
// defaults in one step.
func Reset() GridState {
	return DefaultState()
}

// ApplyFilter replaces both filter criteria. The page index is kept and
// clamped when the view is derived.
func ApplyFilter(s GridState, c FilterCriteria) GridState {
	if c.Department == "" {
		c.Department = AllDepartments
	}
	s.Filter = c
	return s
}

func ApplyDepartment(s GridState, department string) GridState {
	return ApplyFilter(s, FilterCriteria{Department: department, Search: s.Filter.Search})
}

func ApplySearch(s GridState, search string) GridState {
	return ApplyFilter(s, FilterCriteria{Department: s.Filter.Department, Search: search})
}

// ApplySort sets the sort state directly.
func ApplySort(s GridState, sort SortState) GridState {
	if sort.Key == "" || sort.Direction == Unsorted {
		sort = SortState{}
	}
	s.Sort = sort
	return s
}

// ToggleSort advances the per-column cycle unsorted -> asc -> desc ->
// unsorted. Switching to another column always starts at asc.
func ToggleSort(s GridState, key string) GridState {
	return ApplySort(s, NextSort(s.Sort, key))
}

func NextSort(current SortState, key string) SortState {
	if current.Key != key {
		return SortState{Key: key, Direction: Ascending}
	}
	switch current.Direction {
	case Ascending:
		return SortState{Key: key, Direction: Descending}
	case Descending:
		return SortState{}
	default:
		return SortState{Key: key, Direction: Ascending}
	}
}

// ApplyPage stores a page index, floored at 1. The upper bound depends on
// the derived row count and is enforced at render time.
func ApplyPage(s GridState, index int) GridState {
	s.Page = max(index, 1)
	return s
}

// PrevPage steps back one page, floored at 1.
func PrevPage(s GridState, totalPages int) GridState {
	return ApplyPage(s, ClampPage(s.Page, totalPages)-1)
}

// NextPage steps forward one page, capped at totalPages.
func NextPage(s GridState, totalPages int) GridState {
	return ApplyPage(s, ClampPage(ClampPage(s.Page, totalPages)+1, totalPages))
}

// GoToPage jumps to index, clamped to [1, totalPages].
func GoToPage(s GridState, index, totalPages int) GridState {
	return ApplyPage(s, ClampPage(index, totalPages))
}
