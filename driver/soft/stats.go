package soft

import (
	"sync"
	"sync/atomic"
)

// Snapshot is a point-in-time copy of the driver counters.
type Snapshot struct {
	Instances int
	Devices   int
	Images    int
	Memories  int
	Mapped    int
	Submits   int

	// PeakConcurrency is the largest number of driver calls observed in
	// flight at the same time.
	PeakConcurrency int
}

// Live returns the number of resources that have not been released.
func (s Snapshot) Live() int {
	return s.Instances + s.Devices + s.Images + s.Memories + s.Mapped
}

// stats tracks live resources across all instances of a Backend.
type stats struct {
	mu        sync.Mutex
	instances int
	devices   int
	images    int
	memories  int
	mapped    int
	submits   int

	active atomic.Int32
	peak   atomic.Int32
}

func (s *stats) add(field *int, delta int) {
	s.mu.Lock()
	*field += delta
	s.mu.Unlock()
}

// enter records the start of a driver call and returns the matching exit.
func (s *stats) enter() func() {
	n := s.active.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return func() { s.active.Add(-1) }
}

func (s *stats) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Instances:       s.instances,
		Devices:         s.devices,
		Images:          s.images,
		Memories:        s.memories,
		Mapped:          s.mapped,
		Submits:         s.submits,
		PeakConcurrency: int(s.peak.Load()),
	}
}
