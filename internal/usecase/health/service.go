package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing.
	Degraded Status = "degraded"
	// Unhealthy indicates searches cannot run.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	tools ToolChecker
	cache CachePinger
}

// New creates a Service. cache can be nil.
func New(tools ToolChecker, cache CachePinger) *Service {
	return &Service{tools: tools, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.tools.Available(); err != nil {
		checks["package_manager"] = CheckError
		status = Unhealthy
	} else {
		checks["package_manager"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["cache"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
