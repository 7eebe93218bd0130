package sales

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestSkipLog_LimitAndReasons(t *testing.T) {
	t.Parallel()

	s := NewSkipLog(2)
	s.Add(&RowError{Line: 2, Err: ErrTooFewFields})
	s.Add(&RowError{Line: 3, OrderID: "7", Err: ErrDuplicate})
	s.Add(&RowError{Line: 4, OrderID: "8", Err: &FieldError{Field: "Unit Price", Value: "x", Err: errors.New("bad")}})
	s.Add(&RowError{Line: 5, OrderID: "9", Err: ErrDuplicate})
	s.Add(nil)

	if s.Count() != 4 {
		t.Fatalf("Count = %d, want 4", s.Count())
	}
	first := s.samples()
	if len(first) != 2 || first[0] != "line 2: too few fields" {
		t.Fatalf("samples = %q", first)
	}
	got := s.ByReason()
	want := map[string]int{"too_few_fields": 1, "duplicate": 2, "bad_field": 1}
	if len(got) != len(want) {
		t.Fatalf("ByReason = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("ByReason[%s] = %d, want %d", k, got[k], v)
		}
	}
	s.Log("test")
}

// TestSkipLog_Concurrent is a smoke test for concurrent Add calls.
func TestSkipLog_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewSkipLog(5)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(fmt.Errorf("row %d: %w", i, ErrZeroRevenue))
		}(i)
	}
	wg.Wait()
	if s.Count() != 50 || len(s.samples()) != 5 || s.ByReason()["zero_revenue"] != 50 {
		t.Fatalf("Count=%d samples=%d ByReason=%v", s.Count(), len(s.samples()), s.ByReason())
	}
}
