package stats

import (
	"context"
	"math"
	"sync"
	"testing"

	"routeiq/internal/domain"
)

func TestMemorySink_Accumulates(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(ctx, domain.LifetimeStats{Trips: 1, TimeSaved: 3, CO2Saved: 0.5})
		}()
	}
	wg.Wait()
	s.Add(ctx, domain.LifetimeStats{Reroutes: 2})

	got, err := s.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Trips != 50 || got.TimeSaved != 150 || got.Reroutes != 2 {
		t.Errorf("stats = %+v", got)
	}
	if math.Abs(got.CO2Saved-25) > 1e-9 {
		t.Errorf("CO2Saved = %v, want 25", got.CO2Saved)
	}
}

func TestParseCounters(t *testing.T) {
	if parseInt("") != 0 || parseInt("x") != 0 || parseInt("42") != 42 {
		t.Error("parseInt")
	}
	if parseFloat("") != 0 || parseFloat("1.5") != 1.5 {
		t.Error("parseFloat")
	}
}
