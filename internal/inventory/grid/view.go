package grid

import (
	"time"

	"golang.org/x/text/language"

	"imsystem/pkg/models"
)

type ColumnView struct {
	Column
	Sorted    bool      `json:"sorted"`
	Direction Direction `json:"direction,omitempty"`
	Flashing  bool      `json:"flashing"`
}

type View struct {
	Columns         []ColumnView    `json:"columns"`
	Rows            []models.Record `json:"rows"`
	Page            int             `json:"page"`
	TotalPages      int             `json:"total_pages"`
	TotalRecords    int             `json:"total_records"`
	FilteredRecords int             `json:"filtered_records"`
	Departments     []string        `json:"departments"`
	Filter          FilterCriteria  `json:"filter"`
	Sort            SortState       `json:"sort"`
	FlashColumn     string          `json:"flash_column,omitempty"`
	Loading         bool            `json:"loading"`
	Empty           bool            `json:"empty"`
	Status          Status          `json:"status"`
}

// Status describes the snapshot a view was derived from.
type Status struct {
	Version   uint64    `json:"version"`
	FetchedAt time.Time `json:"fetched_at"`
	LastError string    `json:"last_error,omitempty"`
}

// Pipeline runs filter then sort over records and returns every matching
// row, unpaginated.
func Pipeline(records []models.Record, s GridState, tag language.Tag) []models.Record {
	return SortLocale(Filter(records, s.Filter), s.Sort, tag)
}

// Derive builds the rendered view of snap under s. The stored page index
// is clamped to the derived page count; s itself is not changed.
func Derive(snap *Snapshot, s GridState, tag language.Tag) View {
	if snap == nil {
		snap = EmptySnapshot()
	}

	derived := Pipeline(snap.Records, s, tag)
	totalPages := TotalPages(len(derived), PageSize)
	page := ClampPage(s.Page, totalPages)
	rows := Paginate(derived, page, PageSize)

	return View{
		Columns:         columnViews(s.Sort, ""),
		Rows:            rows,
		Page:            page,
		TotalPages:      totalPages,
		TotalRecords:    len(snap.Records),
		FilteredRecords: len(derived),
		Departments:     snap.Departments,
		Filter:          s.Filter,
		Sort:            s.Sort,
		Empty:           len(rows) == 0,
		Status: Status{
			Version:   snap.Version,
			FetchedAt: snap.FetchedAt,
		},
	}
}

// WithFlash marks column as flashing. An empty column clears the marker.
func (v View) WithFlash(column string) View {
	v.FlashColumn = column
	v.Columns = columnViews(v.Sort, column)
	return v
}

func columnViews(s SortState, flash string) []ColumnView {
	out := make([]ColumnView, len(Columns))
	for i, c := range Columns {
		cv := ColumnView{Column: c, Flashing: flash != "" && c.Key == flash}
		if s.Active() && s.Key == c.Key {
			cv.Sorted = true
			cv.Direction = s.Direction
		}
		out[i] = cv
	}
	return out
}
