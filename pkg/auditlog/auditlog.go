package auditlog

import (
	"context"
	"sync"
	"time"

	"imsystem/pkg/models"

	"go.uber.org/zap"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 5 * time.Second
)

type Persister interface {
	PersistLog(ctx context.Context, auditlog models.AuditLog, data interface{}) error
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

type entry struct {
	log  models.AuditLog
	data interface{}
}

// Auditlog writes entries on a background goroutine so request handlers
// never wait on the database. Entries are dropped when the queue is full.
type Auditlog struct {
	r      Persister
	logger *zap.Logger
	queue  chan entry

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAuditLog(r Persister, logger *zap.Logger) *Auditlog {
	a := &Auditlog{
		r:      r,
		logger: logger,
		queue:  make(chan entry, defaultQueueSize),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Auditlog) Log(action string, data interface{}, item Auditable) {
	auditLog := item.CreateLogView()
	auditLog.Action = action

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}

	select {
	case a.queue <- entry{log: auditLog, data: data}:
	default:
		a.logger.Warn("Audit log queue full, dropping entry",
			zap.String("action", action),
			zap.String("resource_id", auditLog.ResourceID),
		)
	}
}

func (a *Auditlog) run() {
	defer close(a.done)

	for e := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := a.r.PersistLog(ctx, e.log, e.data)
		cancel()

		if err != nil {
			a.logger.Error("Unable to create AuditLog entry",
				zap.String("resource_id", e.log.ResourceID),
				zap.String("action", e.log.Action),
				zap.Error(err),
			)
			continue
		}
		a.logger.Debug("Created AuditLog entry",
			zap.String("resource_id", e.log.ResourceID),
			zap.String("action", e.log.Action),
		)
	}
}

// Close stops accepting entries and waits until queued ones are written.
func (a *Auditlog) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	<-a.done
}
