package middleware

import (
	"net/http"
	"time"

	"imsystem/internal/inventory/grid"

	"github.com/gin-gonic/gin"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

type SnapshotStatusProvider interface {
	Status() grid.RefreshStatus
}

type HealthStatus struct {
	Status      string              `json:"status"`
	LastChecked time.Time           `json:"last_checked"`
	Uptime      string              `json:"uptime"`
	Version     string              `json:"version"`
	Snapshot    *grid.RefreshStatus `json:"snapshot,omitempty"`
}

var startTime = time.Now()

// HealthCheckMiddleware reports process uptime and, when provider is set,
// the state of the inventory snapshot. A failed last fetch degrades the
// status but still answers 200 because the previous snapshot is served.
func HealthCheckMiddleware(version string, provider SnapshotStatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := HealthStatus{
			Status:      StatusOK,
			LastChecked: time.Now(),
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Version:     version,
		}

		if provider != nil {
			snapshot := provider.Status()
			health.Snapshot = &snapshot
			if snapshot.LastError != "" {
				health.Status = StatusDegraded
			}
		}

		c.JSON(http.StatusOK, health)
	}
}
