// Package health reports the state of the assistant API's subsystems.
package health

import (
	"context"
	"strings"
	"time"

	"assistant-client/internal/model"
	"assistant-client/pkg/logger"

	"github.com/patrickmn/go-cache"
)

type Tier string

const (
	TierHealthy Tier = "healthy"
	TierWarning Tier = "warning"
	TierError   Tier = "error"
)

const (
	StateUnknown = "unknown"
	StateError   = "error"

	snapshotKey = "agents_status"
)

type Subsystem struct {
	Key   string
	Label string
}

// Subsystems is the fixed, ordered set of indicators.
var Subsystems = []Subsystem{
	{Key: "intent_router", Label: "Intent Router"},
	{Key: "retrieval", Label: "Retrieval Agent"},
	{Key: "response_generation", Label: "Response Agent"},
	{Key: "vector_database", Label: "Vector Database"},
}

type SubsystemStatus struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	State string `json:"state"`
	Tier  Tier   `json:"tier"`
}

type Report struct {
	Subsystems []SubsystemStatus `json:"subsystems"`
	CheckedAt  time.Time         `json:"checked_at"`
	Reachable  bool              `json:"reachable"`
}

// Classify maps a reported state onto a display tier. The "error" test is a
// substring match on purpose: states like "connection_error" count.
func Classify(state string) Tier {
	switch {
	case state == "operational" || state == "healthy" || state == "connected":
		return TierHealthy
	case strings.Contains(state, "error") || state == "disconnected":
		return TierError
	default:
		return TierWarning
	}
}

// Build classifies every known subsystem from a raw status mapping. Missing
// or empty entries read as "unknown".
func Build(status map[string]string) []SubsystemStatus {
	out := make([]SubsystemStatus, 0, len(Subsystems))
	for _, s := range Subsystems {
		state := status[s.Key]
		if state == "" {
			state = StateUnknown
		}
		out = append(out, SubsystemStatus{
			Key:   s.Key,
			Label: s.Label,
			State: state,
			Tier:  Classify(state),
		})
	}
	return out
}

func allError() map[string]string {
	status := make(map[string]string, len(Subsystems))
	for _, s := range Subsystems {
		status[s.Key] = StateError
	}
	return status
}

// StatusSource is the slice of the API client the checker needs.
type StatusSource interface {
	AgentsStatus(ctx context.Context) (map[string]string, error)
	Health(ctx context.Context) (*model.HealthResponse, error)
}

type Checker struct {
	source   StatusSource
	snapshot *cache.Cache
}

// NewChecker caches the last report for ttl; a non-positive ttl disables
// caching.
func NewChecker(source StatusSource, ttl time.Duration) *Checker {
	c := &Checker{source: source}
	if ttl > 0 {
		c.snapshot = cache.New(ttl, 2*ttl)
	}
	return c
}

// Check returns the cached report when one is fresh, otherwise refreshes.
func (c *Checker) Check(ctx context.Context) Report {
	if c.snapshot != nil {
		if r, ok := c.snapshot.Get(snapshotKey); ok {
			return r.(Report)
		}
	}
	return c.Refresh(ctx)
}

// Refresh always queries the API. A failed request forces every subsystem
// into the error tier.
func (c *Checker) Refresh(ctx context.Context) Report {
	report := Report{CheckedAt: time.Now(), Reachable: true}

	status, err := c.source.AgentsStatus(ctx)
	if err != nil {
		logger.Errorf("Failed to check system health: %v", err)
		status = allError()
		report.Reachable = false
	}
	report.Subsystems = Build(status)

	if c.snapshot != nil {
		c.snapshot.SetDefault(snapshotKey, report)
	}
	return report
}

// Probe checks that the API answers /health at all.
func (c *Checker) Probe(ctx context.Context) (*model.HealthResponse, error) {
	resp, err := c.source.Health(ctx)
	if err != nil {
		logger.Errorf("API connection failed: %v", err)
		return nil, err
	}
	logger.Infof("API connection successful (version %q)", resp.Version)
	return resp, nil
}
