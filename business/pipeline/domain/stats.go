package domain

// Stats are pipeline counters since start.
type Stats struct {
	Received          int
	Invalid           int
	Duplicates        int
	Scored            int
	Executed          int
	ExecutionFailures int
	Skipped           map[State]int

	NotificationsSent    int
	NotificationsQueued  int
	NotificationsFailed  int
	NotificationsDropped int
	NotificationsPending int

	DedupSize int
	Paused    bool
}

// Clone returns a deep copy.
func (s Stats) Clone() Stats {
	c := s
	c.Skipped = make(map[State]int, len(s.Skipped))
	for k, v := range s.Skipped {
		c.Skipped[k] = v
	}
	return c
}

// TotalSkipped sums the Skipped-* counters.
func (s Stats) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
