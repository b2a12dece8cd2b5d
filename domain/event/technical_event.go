package event

import (
	"time"
)

type Type string

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	ProcessStatsType        Type = "PROCESS_STATS"
	MessagePostedType       Type = "MESSAGE_POSTED"
	RoundCompletedType      Type = "ROUND_COMPLETED"
	SpecialistFailedType    Type = "SPECIALIST_FAILED"
)

// Event is the envelope for technical telemetry, routed by Type.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

// ProcessStats is a self-sample of the running server process.
type ProcessStats struct {
	PID    int32
	Status string
	Cpu    float64
	Ram    uint64
}
