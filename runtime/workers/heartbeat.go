package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"council-lab/domain/event"
)

// HeartbeatWorker samples the server process itself (CPU, RAM, status)
// and publishes the result on the telemetry channel.
type HeartbeatWorker struct {
	log           *slog.Logger
	interval      time.Duration
	telemetryChan chan event.Event
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, telemetryChan chan event.Event) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:           log,
		interval:      interval,
		telemetryChan: telemetryChan,
	}
}

// Run executes the main loop of the worker, collecting health metrics
// (CPU, RAM, Status) on every tick.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	pid := int32(os.Getpid())
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, status, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			select {
			case w.telemetryChan <- event.Event{
				Type:      event.ProcessStatsType,
				CreatedAt: time.Now().UTC(),
				Payload: event.ProcessStats{
					PID:    pid,
					Status: status,
					Cpu:    cpu,
					Ram:    rss,
				},
			}:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
