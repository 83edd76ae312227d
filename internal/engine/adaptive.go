package engine

import (
	"sync"
	"time"
)

// Pressure is a coarse label for recent scheduler load.
type Pressure string

const (
	PressureLow    Pressure = "LOW"
	PressureMedium Pressure = "MEDIUM"
	PressureHigh   Pressure = "HIGH"
)

// Controller thresholds and steps.
const (
	minAdaptiveBudget = 64
	initialBudget     = 120

	slowWorldTick = 145 * time.Millisecond
	fastWorldTick = 75 * time.Millisecond
	slowWorldStep = -10
	fastWorldStep = 6

	highBatch     = 220 * time.Millisecond
	mediumBatch   = 120 * time.Millisecond
	highBatchStep = -8
	lowBatchStep  = 4
)

// Metrics is a point-in-time view of the controller.
type Metrics struct {
	AdaptiveBudget          int      `json:"adaptive_budget"`
	LastSchedulerDurationMs int64    `json:"last_scheduler_duration_ms"`
	TickPressure            Pressure `json:"tick_pressure"`
}

// Controller tunes the per-tick NPC budget from observed latency.
type Controller struct {
	mu       sync.Mutex
	maxNPCs  int
	budget   int
	last     time.Duration
	pressure Pressure
}

// NewController starts at min(maxNPCs, 120).
func NewController(maxNPCs int) *Controller {
	if maxNPCs <= 0 {
		maxNPCs = DefaultConfig().HardCap
	}
	c := &Controller{maxNPCs: maxNPCs, pressure: PressureLow}
	c.budget = c.clamp(min(maxNPCs, initialBudget))
	return c
}

func (c *Controller) clamp(b int) int {
	lo := min(minAdaptiveBudget, c.maxNPCs)
	if b < lo {
		return lo
	}
	if b > c.maxNPCs {
		return c.maxNPCs
	}
	return b
}

// ObserveWorld adjusts the budget after one world tick.
func (c *Controller) ObserveWorld(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case d > slowWorldTick:
		c.budget = c.clamp(c.budget + slowWorldStep)
	case d < fastWorldTick:
		c.budget = c.clamp(c.budget + fastWorldStep)
	}
}

// ObserveBatch classifies a whole scheduler run.
func (c *Controller) ObserveBatch(d time.Duration) Pressure {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = d
	switch {
	case d >= highBatch:
		c.pressure = PressureHigh
		c.budget = c.clamp(c.budget + highBatchStep)
	case d >= mediumBatch:
		c.pressure = PressureMedium
	default:
		c.pressure = PressureLow
		c.budget = c.clamp(c.budget + lowBatchStep)
	}
	return c.pressure
}

// Budget is the current NPC budget.
func (c *Controller) Budget() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget
}

// Metrics returns the controller state.
func (c *Controller) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Metrics{
		AdaptiveBudget:          c.budget,
		LastSchedulerDurationMs: c.last.Milliseconds(),
		TickPressure:            c.pressure,
	}
}
