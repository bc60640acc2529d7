package auditlog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"imsystem/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPersister struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
	block   chan struct{}
}

func (p *recordingPersister) PersistLog(_ context.Context, log models.AuditLog, _ interface{}) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, log)
	return p.err
}

type session string

func (s session) CreateLogView() models.AuditLog {
	return models.AuditLog{ResourceID: string(s), ResourceType: "inventory_session"}
}

func TestAuditlog_WritesOnClose(t *testing.T) {
	p := &recordingPersister{}
	a := NewAuditLog(p, zap.NewNop())

	a.Log("refresh", nil, session("s1"))
	a.Log("logout", map[string]string{"username": "clerk"}, session("s1"))
	a.Close()

	require.Len(t, p.entries, 2)
	assert.Equal(t, "refresh", p.entries[0].Action)
	assert.Equal(t, "logout", p.entries[1].Action)
	assert.Equal(t, "inventory_session", p.entries[1].ResourceType)
}

func TestAuditlog_PersistErrorIsLogged(t *testing.T) {
	p := &recordingPersister{err: errors.New("db down")}
	a := NewAuditLog(p, zap.NewNop())

	a.Log("refresh", nil, session("s2"))
	a.Close()

	assert.Len(t, p.entries, 1)
}

func TestAuditlog_DropsWhenFull(t *testing.T) {
	p := &recordingPersister{block: make(chan struct{})}
	a := NewAuditLog(p, zap.NewNop())

	for i := 0; i < defaultQueueSize+10; i++ {
		a.Log("refresh", nil, session("s3"))
	}
	close(p.block)
	a.Close()

	assert.LessOrEqual(t, len(p.entries), defaultQueueSize+1)
}

func TestAuditlog_LogAfterClose(t *testing.T) {
	p := &recordingPersister{}
	a := NewAuditLog(p, zap.NewNop())
	a.Close()

	a.Log("logout", nil, session("s4"))
	a.Close()

	assert.Empty(t, p.entries)
}
