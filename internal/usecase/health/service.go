package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchagent/internal/logger"
)

// Status is the aggregated health of the process.
type Status string

const (
	// Healthy means every component answered.
	Healthy Status = "ok"
	// Degraded means runs can proceed but notifications may fail.
	Degraded Status = "degraded"
	// Unhealthy means the store is unreachable and no run can succeed.
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component probe.
type CheckResult string

// Probe outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report aggregates probe outcomes by component name.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

const probeTimeout = 3 * time.Second

type probe struct {
	name     string
	critical bool
	run      func(ctx context.Context) error
}

// Service probes the store and the mail channel.
type Service struct {
	probes []probe
}

// New creates a Service. A nil mail checker is left out of the report.
func New(db Pinger, mail Checker) *Service {
	s := &Service{probes: []probe{{name: "database", critical: true, run: db.Ping}}}
	if mail != nil {
		s.probes = append(s.probes, probe{name: "mail", run: mail.Check})
	}
	return s
}

// Check runs all probes concurrently, each bounded by its own timeout.
// A failing critical probe makes the report Unhealthy, any other failure Degraded.
func (s *Service) Check(ctx context.Context) Report {
	errs := make([]error, len(s.probes))
	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			errs[i] = p.run(pctx)
		}()
	}
	wg.Wait()

	log := logger.FromContext(ctx)
	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.probes))}
	for i, p := range s.probes {
		if errs[i] == nil {
			report.Checks[p.name] = CheckOK
			continue
		}
		log.Warn("Health probe failed", zap.String("component", p.name), zap.Error(errs[i]))
		report.Checks[p.name] = CheckError
		switch {
		case p.critical:
			report.Status = Unhealthy
		case report.Status == Healthy:
			report.Status = Degraded
		}
	}
	return report
}
