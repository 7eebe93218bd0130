package sales

import (
	"log"
	"sort"
	"sync"
)

// SkipLog aggregates skipped-row errors for an end-of-run summary. It keeps
// the first Limit messages verbatim and a count per Reason.
type SkipLog struct {
	mu       sync.Mutex
	limit    int
	count    int
	first    []string
	byReason map[string]int
}

// NewSkipLog returns a SkipLog that keeps up to limit messages.
func NewSkipLog(limit int) *SkipLog {
	return &SkipLog{limit: limit, byReason: make(map[string]int)}
}

// Add records err.
func (s *SkipLog) Add(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byReason[Reason(err)]++
	if s.count < s.limit {
		s.first = append(s.first, err.Error())
	}
	s.count++
}

// Count returns the number of recorded errors.
func (s *SkipLog) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// ByReason returns a copy of the per-reason counts.
func (s *SkipLog) ByReason() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.byReason))
	for k, v := range s.byReason {
		out[k] = v
	}
	return out
}

// samples returns the retained messages in arrival order.
func (s *SkipLog) samples() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.first...)
}

// Log prints the summary under prefix, e.g. "transform".
func (s *SkipLog) Log(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return
	}
	log.Printf("%s: skipped rows: %d (showing first %d)", prefix, s.count, len(s.first))
	for i, m := range s.first {
		log.Printf("  #%03d: %s", i+1, m)
	}
	reasons := make([]string, 0, len(s.byReason))
	for r := range s.byReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		log.Printf("%s: skipped reason=%s count=%d", prefix, r, s.byReason[r])
	}
}
