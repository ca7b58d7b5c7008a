package api

import (
	"net/http"
	"time"

	"github.com/NickLinnik/LocalLibrary/internal/http/response"
)

// Component statuses reported by /health.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(r),
		"search":   s.checkSearchIndex(),
	}

	overall := healthHealthy
	for _, c := range components {
		switch {
		case c.Status == healthUnhealthy:
			overall = healthUnhealthy
		case c.Status == healthDegraded && overall == healthHealthy:
			overall = healthDegraded
		}
	}

	status := http.StatusOK
	if overall == healthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, HealthResponse{Status: overall, Components: components}, s.logger)
}

// checkDatabase pings the catalog database.
func (s *Server) checkDatabase(r *http.Request) ComponentHealth {
	if s.services == nil || s.services.DB == nil {
		return ComponentHealth{Status: healthDegraded, Message: "database not configured"}
	}

	start := time.Now()
	err := s.services.DB.Ping(r.Context())
	latency := time.Since(start)
	if err != nil {
		s.logger.Error("Database health check failed", "error", err)
		return ComponentHealth{Status: healthUnhealthy, Latency: latency.String(), Message: "database unreachable"}
	}
	return ComponentHealth{Status: healthHealthy, Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is readable. An empty index
// is only degraded: search returns nothing until the next reindex.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: healthDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	count, err := s.services.Search.DocumentCount()
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: healthUnhealthy, Latency: latency.String(), Message: "search index unreachable"}
	}
	if count == 0 {
		return ComponentHealth{Status: healthDegraded, Latency: latency.String(), Message: "search index empty"}
	}
	return ComponentHealth{Status: healthHealthy, Latency: latency.String()}
}
