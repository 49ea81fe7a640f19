package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vocabhub/anki-gateway/internal/metrics"
)

const historySize = 10

// StoreProber is the AnkiConnect reachability probe.
type StoreProber interface {
	Probe(ctx context.Context) error
}

// EnricherProber is the AI service configuration check. Unlike the
// store probe it does not touch the network.
type EnricherProber interface {
	Health() error
}

type CheckResult struct {
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	History []CheckResult `json:"history"`
}

// Monitor periodically probes the two external collaborators and keeps
// a short status history per component. The Anki result is mirrored
// into the anki_up gauge.
type Monitor struct {
	store    StoreProber
	enricher EnricherProber
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu       sync.Mutex
	statuses map[string]*ComponentStatus
}

func NewMonitor(store StoreProber, enricher EnricherProber, interval time.Duration, logger *slog.Logger) *Monitor {
	m := &Monitor{
		store:    store,
		enricher: enricher,
		interval: interval,
		cron:     cron.New(),
		logger:   logger,
		statuses: map[string]*ComponentStatus{
			"anki":     {Name: "anki", Status: "unknown", History: make([]CheckResult, 0)},
			"enricher": {Name: "enricher", Status: "unknown", History: make([]CheckResult, 0)},
		},
	}
	return m
}

// Start runs one check immediately, then on the configured interval.
func (m *Monitor) Start() error {
	m.PerformChecks()
	_, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), m.PerformChecks)
	if err != nil {
		return err
	}
	m.cron.Start()
	return nil
}

func (m *Monitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *Monitor) PerformChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ankiErr := m.store.Probe(ctx)
	m.record("anki", ankiErr)
	if ankiErr == nil {
		metrics.AnkiUp.Set(1)
	} else {
		metrics.AnkiUp.Set(0)
	}

	m.record("enricher", m.enricher.Health())
}

func (m *Monitor) record(name string, err error) {
	res := CheckResult{Timestamp: time.Now(), Success: err == nil}
	if err != nil {
		res.Error = err.Error()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	status := m.statuses[name]
	status.Status = "up"
	if err != nil {
		status.Status = "down"
	}
	status.History = append(status.History, res)
	if len(status.History) > historySize {
		status.History = status.History[1:]
	}
	m.logger.Debug("health check", "component", name, "status", status.Status)
}

// Status returns a copy of the current per-component statuses.
func (m *Monitor) Status() map[string]*ComponentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*ComponentStatus, len(m.statuses))
	for k, v := range m.statuses {
		clone := *v
		clone.History = append([]CheckResult(nil), v.History...)
		out[k] = &clone
	}
	return out
}

// Healthy reports whether every component's last check succeeded.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.statuses {
		if s.Status != "up" {
			return false
		}
	}
	return true
}
