package tasks

import "time"

// idSource hands out millisecond timestamps, bumped past the last issued
// value so two adds within the same tick (or after a clock step back) never
// collide.
type idSource struct {
	now  func() time.Time
	last int64
}

func (s *idSource) next() int64 {
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

func (s *idSource) observe(id int64) {
	if id > s.last {
		s.last = id
	}
}
