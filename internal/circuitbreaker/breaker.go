// Package circuitbreaker guards the valuation engine against broken or
// implausible live-price snapshots.
package circuitbreaker

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/aggregate"
	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// ErrOpen is returned while the breaker is cooling down after a trip
var ErrOpen = errors.New("circuit breaker open: system protection engaged")

// ErrEmptySnapshot is returned for a snapshot with no prices
var ErrEmptySnapshot = errors.New("no prices provided to circuit breaker")

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, snapshots rejected
	StateHalfOpen              // Testing if the feed has recovered
)

// String returns the lower-case state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Thresholds defines the limits that will trigger the circuit breaker
type Thresholds struct {
	// Minimum number of priced instruments in a usable snapshot
	MinInstruments int `json:"min_instruments" yaml:"min_instruments"`

	// Maximum median absolute daily change, in percent
	MaxMedianAbsChange float64 `json:"max_median_abs_change" yaml:"max_median_abs_change"`

	// Maximum drop in instrument count against the last good snapshot (e.g. 0.5 for 50%)
	MaxCountDrop float64 `json:"max_count_drop,omitempty" yaml:"max_count_drop"`
}

// Snapshot summarizes one accepted live-price snapshot
type Snapshot struct {
	Instruments     int       `json:"instruments"`
	MedianAbsChange float64   `json:"median_abs_change"`
	CheckedAt       time.Time `json:"checked_at"`
}

// Status is a point-in-time view of the breaker for operators
type Status struct {
	State       State     `json:"state"`
	LastTrip    time.Time `json:"last_trip,omitempty"`
	LastReason  string    `json:"last_reason,omitempty"`
	LastGood    *Snapshot `json:"last_good,omitempty"`
	HistorySize int       `json:"history_size"`
}

// CircuitBreaker rejects live-price snapshots that are too sparse or move
// too much, and keeps the last good snapshot for fallback.
type CircuitBreaker struct {
	thresholds Thresholds

	state      State
	lastTrip   time.Time
	lastReason string
	resetDelay time.Duration

	mu sync.RWMutex

	// last accepted snapshot, served as fallback
	lastGood []model.LivePrice
	history  []Snapshot

	successCount     int
	successThreshold int

	onTripCallback func(reason string, prices []model.LivePrice)
}

// New creates a new CircuitBreaker with the provided thresholds
func New(t Thresholds) *CircuitBreaker {
	return &CircuitBreaker{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 3,
	}
}

// WithResetDelay sets a custom reset delay and returns the circuit breaker
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of successful checks needed to close the circuit
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a callback function that is called when the circuit trips
func (cb *CircuitBreaker) WithTripCallback(callback func(reason string, prices []model.LivePrice)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// Check evaluates a live-price snapshot against the thresholds.
// While open it rejects every snapshot with ErrOpen until the reset delay
// has passed; a violating snapshot trips the circuit.
func (cb *CircuitBreaker) Check(prices []model.LivePrice) error {
	cb.mu.RLock()
	state := cb.state
	lastTripTime := cb.lastTrip
	cb.mu.RUnlock()

	if state == StateOpen {
		if time.Since(lastTripTime) > cb.resetDelay {
			cb.transitionToHalfOpen()
		} else {
			return ErrOpen
		}
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if len(prices) == 0 {
		return ErrEmptySnapshot
	}

	if len(prices) < cb.thresholds.MinInstruments {
		reason := fmt.Sprintf("insufficient instrument count: got %d, need %d",
			len(prices), cb.thresholds.MinInstruments)
		cb.trip(reason, prices)
		return errors.New(reason)
	}

	medianChange := medianAbsChange(prices)
	if cb.thresholds.MaxMedianAbsChange > 0 && medianChange > cb.thresholds.MaxMedianAbsChange {
		reason := fmt.Sprintf("median price change too drastic: %.2f%% (threshold: %.2f%%)",
			medianChange, cb.thresholds.MaxMedianAbsChange)
		cb.trip(reason, prices)
		return errors.New(reason)
	}

	if cb.thresholds.MaxCountDrop > 0 && len(cb.lastGood) > 0 {
		drop := 1 - float64(len(prices))/float64(len(cb.lastGood))
		if drop > cb.thresholds.MaxCountDrop {
			reason := fmt.Sprintf("instrument count dropped: %d -> %d (threshold: %.0f%%)",
				len(cb.lastGood), len(prices), cb.thresholds.MaxCountDrop*100)
			cb.trip(reason, prices)
			return errors.New(reason)
		}
	}

	logrus.WithFields(logrus.Fields{
		"instruments":       len(prices),
		"median_abs_change": medianChange,
	}).Debug("Circuit breaker checks passed")

	cb.addToHistory(prices, medianChange)

	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.successCount = 0
			logrus.Info("Circuit breaker closed: system has recovered")
		}
	}

	return nil
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Status returns the state together with the last trip and the last good snapshot
func (cb *CircuitBreaker) Status() Status {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	st := Status{
		State:       cb.state,
		LastTrip:    cb.lastTrip,
		LastReason:  cb.lastReason,
		HistorySize: len(cb.history),
	}
	if n := len(cb.history); n > 0 {
		last := cb.history[n-1]
		st.LastGood = &last
	}
	return st
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.successCount = 0
	logrus.Info("Circuit breaker manually reset to closed state")
}

// LastGoodPrices returns a copy of the most recent accepted snapshot
func (cb *CircuitBreaker) LastGoodPrices() []model.LivePrice {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if len(cb.lastGood) == 0 {
		return nil
	}

	out := make([]model.LivePrice, len(cb.lastGood))
	copy(out, cb.lastGood)
	return out
}

// transitionToHalfOpen changes the circuit state to half-open for testing recovery
func (cb *CircuitBreaker) transitionToHalfOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen {
		cb.state = StateHalfOpen
		cb.successCount = 0
		logrus.Info("Circuit breaker half-open: testing system recovery")
	}
}

// trip sets the circuit breaker to open state with the current time
func (cb *CircuitBreaker) trip(reason string, prices []model.LivePrice) {
	cb.state = StateOpen
	cb.lastTrip = time.Now()
	cb.lastReason = reason
	logrus.Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTripCallback != nil {
		go cb.onTripCallback(reason, prices)
	}
}

// addToHistory stores the accepted snapshot and a bounded summary trail
func (cb *CircuitBreaker) addToHistory(prices []model.LivePrice, medianChange float64) {
	cb.lastGood = make([]model.LivePrice, len(prices))
	copy(cb.lastGood, prices)

	cb.history = append(cb.history, Snapshot{
		Instruments:     len(prices),
		MedianAbsChange: medianChange,
		CheckedAt:       time.Now(),
	})

	const maxHistorySize = 100
	if len(cb.history) > maxHistorySize {
		cb.history = cb.history[len(cb.history)-maxHistorySize:]
	}
}

// medianAbsChange is the median of |pct_change| across the snapshot
func medianAbsChange(prices []model.LivePrice) float64 {
	changes := make([]*float64, 0, len(prices))
	for _, p := range prices {
		changes = append(changes, model.Float(math.Abs(p.PctChange)))
	}
	if m := aggregate.Median(changes); m != nil {
		return *m
	}
	return 0
}
