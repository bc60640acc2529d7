package viewer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"imsystem/internal/inventory/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestService_DefaultView(t *testing.T) {
	f := newFixture(t, inventory(250, 60))

	view := f.service.View("s1")

	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 3, view.TotalPages)
	assert.Equal(t, 250, view.TotalRecords)
	assert.Equal(t, grid.AllDepartments, view.Filter.Department)
	assert.False(t, view.Sort.Active())
	assert.Equal(t, []string{"All", "Tools", "Hardware"}, view.Departments)
	requireRows(t, view, 100)
	assert.Equal(t, "C000", view.Rows[0].Container)
}

func TestService_FilterByDepartmentAndSearch(t *testing.T) {
	f := newFixture(t, inventory(250, 60))

	view := f.service.SetFilter("s1", FilterRequest{Department: strPtr("Tools")})
	assert.Equal(t, 60, view.FilteredRecords)
	assert.Equal(t, 1, view.TotalPages)
	requireRows(t, view, 60)

	view = f.service.SetFilter("s1", FilterRequest{Search: strPtr("ITEM-01")})
	assert.Equal(t, "Tools", view.Filter.Department, "department is kept when only search changes")
	assert.Equal(t, 10, view.FilteredRecords)

	view = f.service.SetFilter("s1", FilterRequest{Department: strPtr(""), Search: strPtr("")})
	assert.Equal(t, grid.AllDepartments, view.Filter.Department)
	assert.Equal(t, 250, view.FilteredRecords)
}

func TestService_NoMatchesIsEmpty(t *testing.T) {
	f := newFixture(t, inventory(20, 5))

	view := f.service.SetFilter("s1", FilterRequest{Search: strPtr("no such item")})

	assert.True(t, view.Empty)
	assert.Equal(t, 1, view.TotalPages)
	assert.Empty(t, view.Rows)
}

func TestService_ToggleSortCyclesAndFlashes(t *testing.T) {
	f := newFixture(t, inventory(150, 0))

	view, err := f.service.ToggleSort("s1", "quantity")
	require.NoError(t, err)
	assert.Equal(t, grid.SortState{Key: "quantity", Direction: grid.Ascending}, view.Sort)
	assert.Equal(t, "quantity", view.FlashColumn)
	assert.Equal(t, "0", grid.Cells(view.Rows[0])[6])

	view, err = f.service.ToggleSort("s1", "quantity")
	require.NoError(t, err)
	assert.Equal(t, grid.Descending, view.Sort.Direction)
	assert.Equal(t, "100", grid.Cells(view.Rows[0])[6])

	view, err = f.service.ToggleSort("s1", "quantity")
	require.NoError(t, err)
	assert.False(t, view.Sort.Active())
	for _, c := range view.Columns {
		assert.False(t, c.Sorted)
	}
	assert.Equal(t, "C000", view.Rows[0].Container)

	assert.Eventually(t, func() bool {
		return f.service.View("s1").FlashColumn == ""
	}, time.Second, 5*time.Millisecond)
}

func TestService_ToggleSortUnknownColumn(t *testing.T) {
	f := newFixture(t, inventory(5, 0))

	_, err := f.service.ToggleSort("s1", "department")

	assert.ErrorIs(t, err, grid.ErrUnknownColumn)
	assert.False(t, f.service.View("s1").Sort.Active())
}

func TestService_Pagination(t *testing.T) {
	f := newFixture(t, inventory(250, 60))

	assert.Equal(t, 1, f.service.PrevPage("s1").Page)
	assert.Equal(t, 2, f.service.NextPage("s1").Page)
	assert.Equal(t, 3, f.service.NextPage("s1").Page)

	view := f.service.NextPage("s1")
	assert.Equal(t, 3, view.Page)
	requireRows(t, view, 50)

	assert.Equal(t, 2, f.service.PrevPage("s1").Page)
	assert.Equal(t, 3, f.service.GoToPage("s1", 99).Page)
	assert.Equal(t, 1, f.service.GoToPage("s1", 0).Page)
}

func TestService_FilterChangeClampsPage(t *testing.T) {
	f := newFixture(t, inventory(250, 60))
	f.service.GoToPage("s1", 3)

	view := f.service.SetFilter("s1", FilterRequest{Department: strPtr("Tools")})

	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 3, f.sessions.Get("s1").State().Page, "stored index is kept")

	view = f.service.SetFilter("s1", FilterRequest{Department: strPtr("All")})
	assert.Equal(t, 3, view.Page)
}

func TestService_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t, inventory(250, 60))

	_, err := f.service.ToggleSort("a", "rack")
	require.NoError(t, err)
	f.service.SetFilter("a", FilterRequest{Department: strPtr("Tools")})

	other := f.service.View("b")
	assert.False(t, other.Sort.Active())
	assert.Equal(t, grid.AllDepartments, other.Filter.Department)
	assert.Empty(t, other.FlashColumn)
}

func TestService_RefreshReplacesSnapshot(t *testing.T) {
	f := newFixture(t, inventory(250, 60))
	f.service.SetFilter("s1", FilterRequest{Department: strPtr("Tools")})
	f.refresher.next = inventory(40, 40)

	view, err := f.service.Refresh(context.Background(), Actor{SessionID: "s1", UserID: "7", Username: "clerk"})

	require.NoError(t, err)
	assert.Equal(t, uint64(2), view.Status.Version)
	assert.Equal(t, 40, view.FilteredRecords)
	assert.Equal(t, "Tools", view.Filter.Department, "refresh keeps the user's filter")
	assert.Equal(t, []string{ActionRefresh}, f.audit.actions())
	require.NotNil(t, f.audit.entries[0].log.UserID)
	assert.Equal(t, 7, *f.audit.entries[0].log.UserID)
}

func TestService_RefreshFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t, inventory(250, 60))
	f.refresher.fail(errors.New("connection refused"))

	view, err := f.service.Refresh(context.Background(), Actor{SessionID: "s1"})

	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, "connection refused", view.Status.LastError)
	assert.Equal(t, uint64(1), view.Status.Version)
	assert.Equal(t, 250, view.TotalRecords)
}

func TestService_Logout(t *testing.T) {
	f := newFixture(t, inventory(250, 60))
	_, err := f.service.ToggleSort("s1", "quantity")
	require.NoError(t, err)
	f.service.SetFilter("s1", FilterRequest{Department: strPtr("Tools"), Search: strPtr("item")})
	f.service.GoToPage("s1", 2)

	message := f.service.Logout(Actor{SessionID: "s1", Username: "clerk"})

	assert.Equal(t, "You have logged out. Sorting and filters have been reset.", message)
	assert.Equal(t, 0, f.sessions.Len())
	assert.Equal(t, []string{ActionLogout}, f.audit.actions())

	view := f.service.View("s1")
	assert.Equal(t, grid.DefaultState().Filter, view.Filter)
	assert.False(t, view.Sort.Active())
	assert.Equal(t, 1, view.Page)
	assert.Empty(t, view.FlashColumn)
}

func TestService_Export(t *testing.T) {
	f := newFixture(t, inventory(250, 60))
	f.service.SetFilter("s1", FilterRequest{Department: strPtr("Tools")})
	_, err := f.service.ToggleSort("s1", "quantity")
	require.NoError(t, err)
	_, err = f.service.ToggleSort("s1", "quantity")
	require.NoError(t, err)

	report, err := f.service.Export(Actor{SessionID: "s1"})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(report))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 61, "header plus every filtered row, not one page")
	assert.Equal(t, []string{"Container", "Rack", "Level", "Item Code", "Description", "UOM", "Quantity"}, rows[0][:7])

	first, err := wb.GetCellValue(reportSheet, "G2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	last, err := wb.GetCellValue(reportSheet, "G61", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "100", first, "descending by quantity")
	assert.Equal(t, "0", last)
	assert.Equal(t, []string{ActionExport}, f.audit.actions())
}

func TestRegistry_ExpiresIdleSessions(t *testing.T) {
	r := NewRegistry(time.Minute, 0)
	defer r.Close()

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Get("old")
	now = now.Add(30 * time.Second)
	r.Get("fresh")
	assert.Equal(t, 2, r.Len())

	now = now.Add(90 * time.Second)
	r.Get("fresh")
	assert.Equal(t, 1, r.Len())
}
