// Package observability keeps live counters about the coordination
// pipeline. Counters are incremented on the request path with atomics;
// the snapshot is what /v1/stats serves.
package observability

import (
	"sync"
	"sync/atomic"

	"council-lab/domain/event"
	"council-lab/domain/specialist"
)

// Snapshot is the JSON shape served to operators.
type Snapshot struct {
	RoundsStarted      uint64            `json:"rounds_started"`
	RoundsSucceeded    uint64            `json:"rounds_succeeded"`
	RoundsPartial      uint64            `json:"rounds_partial"`
	RoundsFailed       uint64            `json:"rounds_failed"`
	MessagesAppended   uint64            `json:"messages_appended"`
	WorkersRestarted   uint64            `json:"workers_restarted"`
	SpecialistFailures map[string]uint64 `json:"specialist_failures"`
	Process            ProcessSnapshot   `json:"process"`
}

// ProcessSnapshot carries the latest self-sample published by the
// heartbeat worker. Zero until the first sample lands.
type ProcessSnapshot struct {
	PID        int32   `json:"pid"`
	Status     string  `json:"status"`
	CpuPercent float64 `json:"cpu_percent"`
	RamBytes   uint64  `json:"ram_bytes"`
}

// PipelineStats aggregates pipeline counters. Every method is safe for
// concurrent use.
type PipelineStats struct {
	roundsStarted    atomic.Uint64
	roundsSucceeded  atomic.Uint64
	roundsPartial    atomic.Uint64
	roundsFailed     atomic.Uint64
	messagesAppended atomic.Uint64
	workersRestarted atomic.Uint64

	mu                 sync.RWMutex
	specialistFailures map[specialist.ID]uint64
	lastProcess        ProcessSnapshot
}

func NewPipelineStats() *PipelineStats {
	return &PipelineStats{
		specialistFailures: make(map[specialist.ID]uint64),
	}
}

func (s *PipelineStats) IncrRoundsStarted() {
	s.roundsStarted.Add(1)
}

func (s *PipelineStats) IncrRoundsSucceeded() {
	s.roundsSucceeded.Add(1)
}

func (s *PipelineStats) IncrRoundsPartial() {
	s.roundsPartial.Add(1)
}

func (s *PipelineStats) IncrRoundsFailed() {
	s.roundsFailed.Add(1)
}

// AddMessagesAppended counts records the store accepted, whoever
// authored them.
func (s *PipelineStats) AddMessagesAppended(n uint64) {
	s.messagesAppended.Add(n)
}

func (s *PipelineStats) IncrSpecialistFailure(id specialist.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specialistFailures[id]++
}

func (s *PipelineStats) IncrWorkersRestarted() {
	s.workersRestarted.Add(1)
}

func (s *PipelineStats) SetProcessStats(p ProcessSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastProcess = p
}

// Snapshot copies every counter at one point in time. Counters keep
// moving underneath, so two reads may disagree.
func (s *PipelineStats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	failures := make(map[string]uint64, len(s.specialistFailures))
	for id, n := range s.specialistFailures {
		failures[string(id)] = n
	}

	return Snapshot{
		RoundsStarted:      s.roundsStarted.Load(),
		RoundsSucceeded:    s.roundsSucceeded.Load(),
		RoundsPartial:      s.roundsPartial.Load(),
		RoundsFailed:       s.roundsFailed.Load(),
		MessagesAppended:   s.messagesAppended.Load(),
		WorkersRestarted:   s.workersRestarted.Load(),
		SpecialistFailures: failures,
		Process:            s.lastProcess,
	}
}

// StatsHandler feeds the pipeline counters from the telemetry stream:
// worker restarts and heartbeat self-samples only reach this package
// as technical events.
type StatsHandler struct {
	stats *PipelineStats
}

func NewStatsHandler(stats *PipelineStats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Handle(e event.Event) {
	switch e.Type {
	case event.RestartedAfterPanicType:
		h.stats.IncrWorkersRestarted()
	case event.ProcessStatsType:
		if payload, ok := e.Payload.(event.ProcessStats); ok {
			h.stats.SetProcessStats(ProcessSnapshot{
				PID:        payload.PID,
				Status:     payload.Status,
				CpuPercent: payload.Cpu,
				RamBytes:   payload.Ram,
			})
		}
	}
}
