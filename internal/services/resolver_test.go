package services

import (
	"context"
	"testing"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/adapters/geocode"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/ports"
)

func coords(lon, lat float64) *domain.Coordinates {
	return &domain.Coordinates{Lon: lon, Lat: lat}
}

func TestResolveOriginalHit(t *testing.T) {
	mock := geocode.NewMockGeocoder(map[string]ports.GeocodeResult{
		"16 RUE JEAN COTTIN": {Coordinates: coords(2.36, 48.89), FormattedAddress: "16 Rue Jean Cottin, 75018 Paris"},
	})
	resolver := NewResolver(mock)

	attempt := resolver.Resolve(context.Background(), "16 RUE JEAN COTTIN", "T_751800")

	if !attempt.Success {
		t.Fatal("expected success")
	}
	if attempt.Method != domain.MethodOriginal {
		t.Fatalf("method = %q, want %q", attempt.Method, domain.MethodOriginal)
	}
	if attempt.Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence = %q, want %q", attempt.Confidence, domain.ConfidenceHigh)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("provider called %d times, want 1", mock.CallCount())
	}
}

func TestResolveCleanedHit(t *testing.T) {
	mock := geocode.NewMockGeocoder(map[string]ports.GeocodeResult{
		"35 RUE MARC SEGUIN": {Coordinates: coords(2.36, 48.89)},
	})
	resolver := NewResolver(mock)

	attempt := resolver.Resolve(context.Background(), "35 35 RUE MARC SEGUIN", "T_751800")

	if !attempt.Success {
		t.Fatal("expected success")
	}
	if attempt.Method != domain.MethodCleaned {
		t.Fatalf("method = %q, want %q", attempt.Method, domain.MethodCleaned)
	}
	if attempt.Confidence != domain.ConfidenceMedium {
		t.Fatalf("confidence = %q, want %q", attempt.Confidence, domain.ConfidenceMedium)
	}

	calls := mock.Calls()
	if len(calls) != 2 || calls[0] != "35 35 RUE MARC SEGUIN" || calls[1] != "35 RUE MARC SEGUIN" {
		t.Fatalf("unexpected call sequence: %v", calls)
	}
}

func TestResolveSectorCompletion(t *testing.T) {
	mock := geocode.NewMockGeocoder(map[string]ports.GeocodeResult{
		"16 RUE JEAN COTTIN, 75018 Paris": {Coordinates: coords(2.36, 48.89)},
	})
	resolver := NewResolver(mock)

	attempt := resolver.Resolve(context.Background(), "16 RUE JEAN COTTIN", "T_751800")

	if !attempt.Success {
		t.Fatal("expected success")
	}
	if attempt.Method != domain.MethodCompletedWithSector {
		t.Fatalf("method = %q, want %q", attempt.Method, domain.MethodCompletedWithSector)
	}
}

func TestResolveRepairsIncompleteAddress(t *testing.T) {
	mock := geocode.NewMockGeocoder(map[string]ports.GeocodeResult{
		"75 RUE INCONNUE, 75018 PARIS": {Coordinates: coords(2.35, 48.89)},
	})
	resolver := NewResolver(mock)

	attempt := resolver.Resolve(context.Background(), "75, 75018 PARIS", "T_751800")

	if !attempt.Success {
		t.Fatal("expected success")
	}
	if attempt.Method != domain.MethodOriginal {
		t.Fatalf("method = %q, want %q", attempt.Method, domain.MethodOriginal)
	}
	if attempt.OriginalAddress != "75, 75018 PARIS" {
		t.Fatalf("original address = %q, want the raw input", attempt.OriginalAddress)
	}
	if len(attempt.Warnings) == 0 {
		t.Fatal("expected a repair warning")
	}
}

func TestResolveExhaustionRequiresManual(t *testing.T) {
	mock := geocode.NewMockGeocoder(nil)
	resolver := NewResolver(mock)

	attempt := resolver.Resolve(context.Background(), "COMPLETELY UNKNOWN PLACE", "T_751800")

	if attempt.Success {
		t.Fatal("expected failure")
	}
	if attempt.Method != domain.MethodManualRequired {
		t.Fatalf("method = %q, want %q", attempt.Method, domain.MethodManualRequired)
	}
	if attempt.Confidence != domain.ConfidenceNone {
		t.Fatalf("confidence = %q, want %q", attempt.Confidence, domain.ConfidenceNone)
	}
}

func TestResolveCascadeOrderDeterministic(t *testing.T) {
	run := func() []string {
		mock := geocode.NewMockGeocoder(nil)
		resolver := NewResolver(mock)
		resolver.Resolve(context.Background(), "35 35 RUE MARC SEGUIN", "T_751800")
		return mock.Calls()
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("call counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("call %d differs: %q vs %q", i, first[i], second[i])
		}
	}
	if first[0] != "35 35 RUE MARC SEGUIN" || first[1] != "35 RUE MARC SEGUIN" {
		t.Fatalf("unexpected cascade prefix: %v", first)
	}
}

func TestResolveProviderErrorFallsThrough(t *testing.T) {
	mock := geocode.NewMockGeocoder(nil)
	mock.FailAll()
	resolver := NewResolver(mock)

	attempt := resolver.Resolve(context.Background(), "16 RUE JEAN COTTIN", "T_751800")

	if attempt.Success {
		t.Fatal("expected failure when the provider is down")
	}
	if attempt.Method != domain.MethodManualRequired {
		t.Fatalf("method = %q, want %q", attempt.Method, domain.MethodManualRequired)
	}
}

func TestResolveBatchCounters(t *testing.T) {
	mock := geocode.NewMockGeocoder(map[string]ports.GeocodeResult{
		"16 RUE JEAN COTTIN": {Coordinates: coords(2.36, 48.89)},
		"35 RUE MARC SEGUIN": {Coordinates: coords(2.36, 48.89)},
	})
	resolver := NewResolver(mock)
	resolver.chunkPause = 0

	batch, err := resolver.ResolveBatch(context.Background(), []string{
		"16 RUE JEAN COTTIN",
		"35 35 RUE MARC SEGUIN",
		"COMPLETELY UNKNOWN PLACE",
	}, "T_751800")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch.TotalAddresses != 3 {
		t.Fatalf("total = %d, want 3", batch.TotalAddresses)
	}
	if batch.AutoValidated != 1 {
		t.Fatalf("auto validated = %d, want 1", batch.AutoValidated)
	}
	if batch.CleanedAuto != 1 {
		t.Fatalf("cleaned = %d, want 1", batch.CleanedAuto)
	}
	if batch.RequiresManual != 1 {
		t.Fatalf("manual = %d, want 1", batch.RequiresManual)
	}
	if len(batch.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(batch.Attempts))
	}
	// Results keep input order despite parallel resolution.
	if batch.Attempts[0].Method != domain.MethodOriginal {
		t.Fatalf("attempt 0 method = %q, want %q", batch.Attempts[0].Method, domain.MethodOriginal)
	}
	if batch.Attempts[2].Method != domain.MethodManualRequired {
		t.Fatalf("attempt 2 method = %q, want %q", batch.Attempts[2].Method, domain.MethodManualRequired)
	}
}
