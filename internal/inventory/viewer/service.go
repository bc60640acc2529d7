package viewer

import (
	"context"
	"fmt"
	"strconv"

	"imsystem/internal/inventory/grid"
	"imsystem/pkg/auditlog"
	"imsystem/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	LogoutMessage = "You have logged out. Sorting and filters have been reset."

	ActionRefresh = "inventory_refresh"
	ActionLogout  = "logout"
	ActionExport  = "inventory_export"

	ResourceType = "inventory_session"
)

type Refresher interface {
	Refresh(ctx context.Context) error
	Status() grid.RefreshStatus
	Store() *grid.Store
}

type AuditLogger interface {
	Log(action string, data interface{}, item auditlog.Auditable)
}

// FilterRequest carries optional filter changes; nil fields keep their
// current value.
type FilterRequest struct {
	Department *string `json:"department"`
	Search     *string `json:"search"`
}

// Actor identifies who performed an audited action.
type Actor struct {
	SessionID string
	UserID    string
	Username  string
}

func (a Actor) CreateLogView() models.AuditLog {
	view := models.AuditLog{ResourceID: a.SessionID, ResourceType: ResourceType}
	if id, err := strconv.Atoi(a.UserID); err == nil {
		view.UserID = &id
	}
	return view
}

type Service struct {
	refresher Refresher
	sessions  *Registry
	locale    language.Tag
	audit     AuditLogger
	logger    *zap.Logger
}

func NewService(refresher Refresher, sessions *Registry, locale language.Tag, audit AuditLogger, logger *zap.Logger) *Service {
	return &Service{
		refresher: refresher,
		sessions:  sessions,
		locale:    locale,
		audit:     audit,
		logger:    logger,
	}
}

// View derives the current page for the session.
func (s *Service) View(sessionID string) grid.View {
	session := s.sessions.Get(sessionID)
	return s.render(session, session.State())
}

func (s *Service) SetFilter(sessionID string, req FilterRequest) grid.View {
	session := s.sessions.Get(sessionID)
	state := session.update(func(st grid.GridState) grid.GridState {
		if req.Department != nil {
			st = grid.ApplyDepartment(st, *req.Department)
		}
		if req.Search != nil {
			st = grid.ApplySearch(st, *req.Search)
		}
		return st
	})
	return s.render(session, state)
}

// ToggleSort advances the sort cycle of column and flashes its header.
func (s *Service) ToggleSort(sessionID, column string) (grid.View, error) {
	if _, err := grid.LookupColumn(column); err != nil {
		return grid.View{}, err
	}

	session := s.sessions.Get(sessionID)
	state := session.update(func(st grid.GridState) grid.GridState {
		return grid.ToggleSort(st, column)
	})
	session.flash.Trigger(column)

	return s.render(session, state), nil
}

func (s *Service) PrevPage(sessionID string) grid.View {
	return s.navigate(sessionID, grid.PrevPage)
}

func (s *Service) NextPage(sessionID string) grid.View {
	return s.navigate(sessionID, grid.NextPage)
}

func (s *Service) GoToPage(sessionID string, index int) grid.View {
	return s.navigate(sessionID, func(st grid.GridState, total int) grid.GridState {
		return grid.GoToPage(st, index, total)
	})
}

func (s *Service) navigate(sessionID string, step func(grid.GridState, int) grid.GridState) grid.View {
	session := s.sessions.Get(sessionID)
	snap := s.refresher.Store().Load()

	state := session.update(func(st grid.GridState) grid.GridState {
		matched := len(grid.Filter(snap.Records, st.Filter))
		return step(st, grid.TotalPages(matched, grid.PageSize))
	})
	return s.derive(session, snap, state)
}

// Refresh fetches a new snapshot now. A failed fetch is reported through
// the returned view's status and the error; the previous snapshot stays.
func (s *Service) Refresh(ctx context.Context, actor Actor) (grid.View, error) {
	err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.Warn("Manual inventory refresh failed", zap.String("session_id", actor.SessionID), zap.Error(err))
	}

	status := s.refresher.Status()
	s.audit.Log(ActionRefresh, map[string]interface{}{
		"username": actor.Username,
		"version":  status.Version,
		"records":  status.Records,
		"error":    status.LastError,
	}, actor)

	return s.View(actor.SessionID), err
}

// Logout resets the session's filter, sort and page in one step and forgets
// the session. It returns the acknowledgment shown to the user.
func (s *Service) Logout(actor Actor) string {
	session := s.sessions.Get(actor.SessionID)
	session.update(func(grid.GridState) grid.GridState { return grid.Reset() })
	s.sessions.Remove(actor.SessionID)

	s.audit.Log(ActionLogout, map[string]interface{}{"username": actor.Username}, actor)
	s.logger.Info("Viewer session logged out", zap.String("session_id", actor.SessionID), zap.String("username", actor.Username))

	return LogoutMessage
}

func (s *Service) Departments() []string {
	return s.refresher.Store().Load().Departments
}

// Export renders every row matching the session's filter and sort, not only
// the current page, as an XLSX workbook.
func (s *Service) Export(actor Actor) ([]byte, error) {
	state := s.sessions.Get(actor.SessionID).State()
	rows := grid.Pipeline(s.refresher.Store().Load().Records, state, s.locale)

	report, err := generateReport(rows)
	if err != nil {
		return nil, fmt.Errorf("generate inventory report: %w", err)
	}

	s.audit.Log(ActionExport, map[string]interface{}{
		"username": actor.Username,
		"rows":     len(rows),
		"filter":   state.Filter,
		"sort":     state.Sort,
	}, actor)

	return report, nil
}

func (s *Service) render(session *Session, state grid.GridState) grid.View {
	return s.derive(session, s.refresher.Store().Load(), state)
}

func (s *Service) derive(session *Session, snap *grid.Snapshot, state grid.GridState) grid.View {
	view := grid.Derive(snap, state, s.locale).WithFlash(session.FlashColumn())

	status := s.refresher.Status()
	view.Loading = status.Loading
	view.Status.LastError = status.LastError
	return view
}
