package team

import (
	"math"
	"strings"
	"time"
)

// WorkerKind selects how a worker's efficiency evolves over time.
type WorkerKind int

const (
	// ConstantEfficiency workers contribute the same share every month.
	ConstantEfficiency WorkerKind = iota
	// RampUp workers are new hires whose efficiency grows with tenure.
	RampUp
)

const (
	DefaultEfficiency = 0.5

	rampUpStartEfficiency = 0.4
	rampUpMaxEfficiency   = 0.7
	rampUpDailyGrowth     = 0.0015
)

// Worker is one member of a team.
type Worker struct {
	Name       string
	Kind       WorkerKind
	WorksSince time.Time

	efficiency float64
}

// NewWorker creates a worker with constant efficiency.
func NewWorker(name string, efficiency float64) Worker {
	return Worker{Name: name, Kind: ConstantEfficiency, efficiency: efficiency}
}

// NewRampUpWorker creates a new hire starting at the given date.
func NewRampUpWorker(name string, since time.Time) Worker {
	return Worker{Name: name, Kind: RampUp, WorksSince: since}
}

// IsRampUpName reports whether a worker name denotes a position to be hired ("TBH").
func IsRampUpName(name string) bool {
	return strings.Contains(name, "TBH")
}

// Efficiency returns the worker's share of a full-time person at the given date, in [0, 1].
func (w Worker) Efficiency(at time.Time) float64 {
	if w.Kind != RampUp {
		return clamp(w.efficiency)
	}
	if at.Before(w.WorksSince) {
		return 0
	}
	days := at.Sub(w.WorksSince).Hours() / 24
	growth := math.Min(rampUpMaxEfficiency-rampUpStartEfficiency, rampUpDailyGrowth*math.Floor(days))
	return clamp(rampUpStartEfficiency + growth)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
