package source

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/davidkirwan/asset-monitoring/internal/model"
)

// Process reports the exporter's own resource usage. Optional: it changes the
// /metrics body, so it stays off unless self_metrics is configured.
type Process struct {
	proc *process.Process
}

// NewProcess creates the self-metrics source for the current process.
func NewProcess() (*Process, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Process{proc: p}, nil
}

func (p *Process) ID() string          { return "process" }
func (p *Process) Name() string        { return "Process" }
func (p *Process) Description() string { return "Exporter CPU, memory and goroutine gauges" }

// Fetch never fails the scrape: probes that error are simply left out.
func (p *Process) Fetch(ctx context.Context) ([]model.MetricSample, error) {
	var samples []model.MetricSample

	if pct, err := p.proc.CPUPercentWithContext(ctx); err == nil {
		samples = append(samples, model.MetricSample{
			Name:  "asset_monitoring_process_cpu_percent",
			Help:  "CPU usage of the exporter process",
			Value: formatFloat(pct),
		})
	}

	if mi, err := p.proc.MemoryInfoWithContext(ctx); err == nil {
		samples = append(samples, model.MetricSample{
			Name:  "asset_monitoring_process_resident_memory_bytes",
			Help:  "Resident memory of the exporter process",
			Value: strconv.FormatUint(mi.RSS, 10),
		})
	}

	samples = append(samples, model.MetricSample{
		Name:  "asset_monitoring_process_goroutines",
		Help:  "Number of goroutines in the exporter process",
		Value: strconv.Itoa(runtime.NumGoroutine()),
	})

	return samples, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
