package coordinator

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the coordinator's aggregate counters.
// Counters increase monotonically until ResetMetrics.
type Snapshot struct {
	TotalRequests      uint64
	SuccessfulRequests uint64
	FailedRequests     uint64
	Timeouts           uint64
	Retries            uint64
	CircuitTrips       uint64
	CacheHits          uint64
	CacheMisses        uint64

	// AverageResponseTime is the mean duration of all recorded calls.
	AverageResponseTime time.Duration
}

// statsTracker accumulates the process-local counters behind Snapshot.
type statsTracker struct {
	mu            sync.Mutex
	totalRequests uint64
	successes     uint64
	failures      uint64
	timeouts      uint64
	retries       uint64
	circuitTrips  uint64
	cacheHits     uint64
	cacheMisses   uint64
	totalDuration time.Duration
}

func (s *statsTracker) recordCall(duration time.Duration, err error, timedOut bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.totalDuration += duration
	if err != nil {
		s.failures++
		if timedOut {
			s.timeouts++
		}
	} else {
		s.successes++
	}
}

func (s *statsTracker) recordRetry() {
	s.mu.Lock()
	s.retries++
	s.mu.Unlock()
}

func (s *statsTracker) recordTrip() {
	s.mu.Lock()
	s.circuitTrips++
	s.mu.Unlock()
}

func (s *statsTracker) recordCacheHit() {
	s.mu.Lock()
	s.cacheHits++
	s.mu.Unlock()
}

func (s *statsTracker) recordCacheMiss() {
	s.mu.Lock()
	s.cacheMisses++
	s.mu.Unlock()
}

func (s *statsTracker) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		TotalRequests:      s.totalRequests,
		SuccessfulRequests: s.successes,
		FailedRequests:     s.failures,
		Timeouts:           s.timeouts,
		Retries:            s.retries,
		CircuitTrips:       s.circuitTrips,
		CacheHits:          s.cacheHits,
		CacheMisses:        s.cacheMisses,
	}
	if s.totalRequests > 0 {
		snap.AverageResponseTime = s.totalDuration / time.Duration(s.totalRequests)
	}
	return snap
}

func (s *statsTracker) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests = 0
	s.successes = 0
	s.failures = 0
	s.timeouts = 0
	s.retries = 0
	s.circuitTrips = 0
	s.cacheHits = 0
	s.cacheMisses = 0
	s.totalDuration = 0
}
