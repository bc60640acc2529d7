package grid

import (
	"sync/atomic"
	"time"

	"imsystem/pkg/models"
)

// MaxRecords bounds one snapshot; the data source is asked for the
// inclusive range [0, MaxRecords-1].
const MaxRecords = 10000

// Snapshot is one fetched record set. It is never modified after
// construction.
type Snapshot struct {
	Records     []models.Record `json:"records"`
	Departments []string        `json:"departments"`
	FetchedAt   time.Time       `json:"fetched_at"`
	Version     uint64          `json:"version"`
}

func NewSnapshot(records []models.Record, fetchedAt time.Time) *Snapshot {
	if records == nil {
		records = []models.Record{}
	}
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}
	return &Snapshot{
		Records:     records,
		Departments: Departments(records),
		FetchedAt:   fetchedAt,
	}
}

func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, time.Time{})
}

// Store holds the current snapshot. Readers always observe a complete
// snapshot; writers replace it wholesale.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(EmptySnapshot())
	return s
}

func (s *Store) Load() *Snapshot {
	return s.current.Load()
}

// Replace installs records as the new snapshot and returns it.
func (s *Store) Replace(records []models.Record, fetchedAt time.Time) *Snapshot {
	snap := NewSnapshot(records, fetchedAt)
	snap.Version = s.version.Add(1)
	s.current.Store(snap)
	return snap
}
