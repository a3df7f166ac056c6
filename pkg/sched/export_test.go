package sched

import "time"

// SetNowForTest replaces the scheduler's clock for tests.
func (s *Scheduler) SetNowForTest(f func() time.Time) { s.now = f }
