package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger reports reachability of the backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker periodically verifies store connectivity and logs a
// host resource snapshot. Store outages surface here before a user
// request trips over them.
type HealthChecker struct {
	store    Pinger
	schedule cron.Schedule
	done     chan bool
}

// NewHealthChecker creates a checker from a standard cron expression
// (descriptors like "@every 5m" are accepted).
func NewHealthChecker(store Pinger, cronExpr string) (*HealthChecker, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &HealthChecker{
		store:    store,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the checker's loop.
func (hc *HealthChecker) Run() {
	log.Info().Msg("Starting store health checker...")

	// Run once immediately on start
	hc.check()

	for {
		timer := time.NewTimer(time.Until(hc.schedule.Next(time.Now())))
		select {
		case <-hc.done:
			timer.Stop()
			log.Info().Msg("Stopping store health checker.")
			return
		case <-timer.C:
			hc.check()
		}
	}
}

// Stop halts the checker.
func (hc *HealthChecker) Stop() {
	hc.done <- true
}

func (hc *HealthChecker) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.store.Ping(ctx)
	pingMs := time.Since(start).Milliseconds()

	event := log.Info()
	if err != nil {
		event = log.Error().Err(err)
	}
	event = event.Int64("store_ping_ms", pingMs)

	if percents, cpuErr := cpu.Percent(0, false); cpuErr == nil && len(percents) > 0 {
		event = event.Float64("cpu_percent", percents[0])
	}
	if vm, memErr := mem.VirtualMemory(); memErr == nil {
		event = event.Float64("mem_used_percent", vm.UsedPercent)
	}

	if err != nil {
		event.Msg("Store health check failed")
	} else {
		event.Msg("Store health check ok")
	}
}
