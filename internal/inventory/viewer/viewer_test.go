package viewer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"imsystem/internal/inventory/grid"
	"imsystem/pkg/auditlog"
	"imsystem/pkg/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type stubRefresher struct {
	mu      sync.Mutex
	store   *grid.Store
	next    []models.Record
	err     error
	lastErr string
	calls   int
}

func newStubRefresher(records []models.Record) *stubRefresher {
	r := &stubRefresher{store: grid.NewStore()}
	r.store.Replace(records, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	return r
}

func (r *stubRefresher) Refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		r.lastErr = r.err.Error()
		return fmt.Errorf("fetch inventory snapshot: %w", r.err)
	}
	r.lastErr = ""
	r.store.Replace(r.next, time.Now())
	return nil
}

func (r *stubRefresher) Status() grid.RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.store.Load()
	return grid.RefreshStatus{
		Version:   snap.Version,
		Records:   len(snap.Records),
		FetchedAt: snap.FetchedAt,
		LastError: r.lastErr,
	}
}

func (r *stubRefresher) Store() *grid.Store {
	return r.store
}

func (r *stubRefresher) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

type auditEntry struct {
	action string
	log    models.AuditLog
	data   interface{}
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAudit) Log(action string, data interface{}, item auditlog.Auditable) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action: action, log: item.CreateLogView(), data: data})
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.action
	}
	return out
}

func strPtr(s string) *string { return &s }

// inventory builds n records; the first tools of them belong to "Tools" and
// the rest alternate between "Hardware" and no department.
func inventory(n, tools int) []models.Record {
	records := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		r := models.Record{
			Container: fmt.Sprintf("C%03d", i),
			Rack:      fmt.Sprintf("R%d", i%7),
			Level:     fmt.Sprintf("L%d", i%3),
			ItemCode:  strPtr(fmt.Sprintf("item-%03d", i)),
			UOM:       "pcs",
		}
		q := float64((i * 37) % 101)
		r.Quantity = &q
		switch {
		case i < tools:
			r.Department = strPtr("Tools")
		case i%2 == 0:
			r.Department = strPtr("Hardware")
		}
		records = append(records, r)
	}
	return records
}

type fixture struct {
	service   *Service
	refresher *stubRefresher
	audit     *recordingAudit
	sessions  *Registry
}

func newFixture(t *testing.T, records []models.Record) *fixture {
	refresher := newStubRefresher(records)
	audit := &recordingAudit{}
	sessions := NewRegistry(time.Hour, 50*time.Millisecond)
	t.Cleanup(sessions.Close)

	return &fixture{
		service:   NewService(refresher, sessions, language.English, audit, zap.NewNop()),
		refresher: refresher,
		audit:     audit,
		sessions:  sessions,
	}
}

func requireRows(t *testing.T, view grid.View, n int) {
	t.Helper()
	require.Len(t, view.Rows, n)
}
