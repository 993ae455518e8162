package health

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/database"
	"github.com/arogya-app/arogya/backend/internal/reference"
)

// HealthChecker probes the dependencies of the assistant pipeline.
// Degraded optional dependencies (vector store, search key, provider
// keys) report as such without failing the overall check.
type HealthChecker struct {
	dbManager      *database.Manager
	store          *reference.Store
	serpConfigured bool
	llmConfigured  bool
	logger         *logrus.Logger
	startedAt      time.Time
}

func NewHealthChecker(
	dbManager *database.Manager,
	store *reference.Store,
	serpConfigured bool,
	llmConfigured bool,
	logger *logrus.Logger,
) *HealthChecker {
	return &HealthChecker{
		dbManager:      dbManager,
		store:          store,
		serpConfigured: serpConfigured,
		llmConfigured:  llmConfigured,
		logger:         logger,
		startedAt:      time.Now(),
	}
}

// ServiceHealth represents the health status of a dependency
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (h *HealthChecker) CheckPostgreSQL() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingDatabase()
	return h.result("postgresql", start, err, false)
}

func (h *HealthChecker) CheckRedis() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingRedis()
	return h.result("redis", start, err, false)
}

// CheckVectorStore reports the reference corpus state. An unreachable
// store is "degraded": local search is optional.
func (h *HealthChecker) CheckVectorStore(ctx context.Context) ServiceHealth {
	start := time.Now()
	status := h.store.Status()
	if !status.Available {
		return h.degraded("vector_store", start, "chroma client unavailable")
	}
	if !status.Initialized {
		if err := h.store.EnsureCollection(ctx); err != nil {
			return h.degraded("vector_store", start, err.Error())
		}
	}
	return h.result("vector_store", start, nil, false)
}

func (h *HealthChecker) CheckWebSearch() ServiceHealth {
	start := time.Now()
	if !h.serpConfigured {
		return h.degraded("web_search", start, "no API key configured")
	}
	return h.result("web_search", start, nil, false)
}

func (h *HealthChecker) CheckProviders() ServiceHealth {
	start := time.Now()
	if !h.llmConfigured {
		return h.degraded("llm_providers", start, "no provider API key configured")
	}
	return h.result("llm_providers", start, nil, false)
}

// CheckAll aggregates every dependency. Only hard-dependency failures
// (postgres, redis) turn the overall status unhealthy.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(),
		h.CheckRedis(),
		h.CheckVectorStore(ctx),
		h.CheckWebSearch(),
		h.CheckProviders(),
	}

	overall := "healthy"
	for _, svc := range services[:2] {
		if svc.Status == "unhealthy" {
			overall = "unhealthy"
		}
	}
	if overall == "healthy" {
		for _, svc := range services[2:] {
			if svc.Status != "healthy" {
				overall = "degraded"
				break
			}
		}
	}

	return OverallHealth{
		Status:   overall,
		Services: services,
		Uptime:   time.Since(h.startedAt).Round(time.Second).String(),
	}
}

func (h *HealthChecker) result(name string, start time.Time, err error, optional bool) ServiceHealth {
	status := "healthy"
	errorMsg := ""
	if err != nil {
		status = "unhealthy"
		if optional {
			status = "degraded"
		}
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: int(time.Since(start).Milliseconds()),
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

func (h *HealthChecker) degraded(name string, start time.Time, reason string) ServiceHealth {
	return ServiceHealth{
		Name:         name,
		Status:       "degraded",
		ResponseTime: int(time.Since(start).Milliseconds()),
		Error:        reason,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}
