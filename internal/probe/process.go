package probe

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	api "github.com/nbwatchdog/nbwatchdog/lib-watchdog"
)

const (
	cpuSampleInterval = 100 * time.Millisecond
)

// CheckProcess looks for a process that the name contains name, case-insensitively.
// A missing process is a succeeded Result that Running is false.
func CheckProcess(ctx context.Context, name string) api.Result[api.ProcessInfo] {
	st := CurrentTime()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return api.Failed(api.ProcessInfo{}, api.ErrorTypeException, err.Error(), st)
	}

	name = strings.ToLower(name)
	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil || !strings.Contains(strings.ToLower(pname), name) {
			continue
		}
		return api.Ok(describeProcess(ctx, p), st)
	}

	return api.Ok(api.ProcessInfo{Running: false}, st)
}

func describeProcess(ctx context.Context, p *process.Process) api.ProcessInfo {
	info := api.ProcessInfo{
		Running: true,
		PID:     api.Ptr(p.Pid),
	}

	if created, err := p.CreateTimeWithContext(ctx); err == nil {
		uptime := int64(CurrentTime().Sub(time.UnixMilli(created)).Seconds())
		info.UptimeSeconds = &uptime
	}

	if cpu, err := p.PercentWithContext(ctx, cpuSampleInterval); err == nil {
		info.CPUPercent = &cpu
	}

	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		mb := math.Round(float64(mem.RSS)/(1024*1024)*100) / 100
		info.MemoryMB = &mb
	}

	if threads, err := p.NumThreadsWithContext(ctx); err == nil {
		info.Threads = &threads
	}

	return info
}
