package metadata

import (
	"fmt"
	"sync"
	"time"
)

// HealthCategory is the health category providers are tracked under.
const HealthCategory = "providers"

// HealthService is the interface for central health tracking.
type HealthService interface {
	RegisterItemStr(category, id, name string)
	UnregisterItemStr(category, id string)
	SetWarningStr(category, id, message string)
	ClearStatusStr(category, id string)
}

// MetricsRecorder receives provider call and aggregation measurements.
type MetricsRecorder interface {
	ObserveProviderCall(providerID, stage string, slot Slot, elapsed time.Duration, err error)
	ObserveAggregation(mt MediaType, outcome string, elapsed time.Duration)
}

// observer fans provider call outcomes out to the optional health and metrics
// sinks and holds the event broadcaster. Sinks may be swapped while serving.
type observer struct {
	mu          sync.RWMutex
	health      HealthService
	metrics     MetricsRecorder
	broadcaster Broadcaster
}

func (o *observer) setHealth(hs HealthService) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.health = hs
}

func (o *observer) setMetrics(m MetricsRecorder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.metrics = m
}

func (o *observer) setBroadcaster(b Broadcaster) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcaster = b
}

func (o *observer) events() Broadcaster {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.broadcaster
}

func (o *observer) sinks() (HealthService, MetricsRecorder) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.health, o.metrics
}

func (o *observer) providerCall(providerID, stage string, slot Slot, elapsed time.Duration, err error) {
	health, metrics := o.sinks()
	if metrics != nil {
		metrics.ObserveProviderCall(providerID, stage, slot, elapsed, err)
	}
	if health == nil {
		return
	}
	if err != nil {
		health.SetWarningStr(HealthCategory, providerID, err.Error())
		return
	}
	health.ClearStatusStr(HealthCategory, providerID)
}

func (o *observer) aggregation(mt MediaType, outcome string, elapsed time.Duration) {
	if _, metrics := o.sinks(); metrics != nil {
		metrics.ObserveAggregation(mt, outcome, elapsed)
	}
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
