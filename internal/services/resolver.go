package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/obs"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/ports"
)

// Resolver runs the multi-attempt geocoding cascade against the external
// provider. The cascade is read-only with respect to persistent state;
// memoization is the address cache's job.
//
// Attempt order is fixed: original (possibly repaired) string, cleaned string,
// cleaned string completed with the driver's sector, then a partial search on
// the street portion alone. The first structurally valid result wins.
type Resolver struct {
	geocoder ports.Geocoder

	// Batch tuning. Chunking exists to respect the provider's rate limits,
	// not for correctness.
	chunkSize  int
	chunkPause time.Duration
}

func NewResolver(geocoder ports.Geocoder) *Resolver {
	return &Resolver{
		geocoder:   geocoder,
		chunkSize:  10,
		chunkPause: 100 * time.Millisecond,
	}
}

// isUsable rejects provider answers without both coordinates non-zero; a
// (0,0) answer is the provider's way of shrugging.
func isUsable(result ports.GeocodeResult) bool {
	return result.Coordinates != nil && result.Coordinates.Lon != 0 && result.Coordinates.Lat != 0
}

// attempt geocodes one candidate string; provider errors (including timeouts)
// count as a miss so the cascade moves on.
func (r *Resolver) attempt(ctx context.Context, candidate string) (ports.GeocodeResult, bool) {
	result, err := r.geocoder.Geocode(ctx, candidate)
	if err != nil {
		log.Printf("geocode attempt failed: addr=%q err=%v", candidate, err)
		return ports.GeocodeResult{}, false
	}
	return result, isUsable(result)
}

func success(raw string, result ports.GeocodeResult, method domain.ResolutionMethod, confidence domain.ResolutionConfidence, warnings []string) domain.GeocodeAttempt {
	return domain.GeocodeAttempt{
		Success:          true,
		Coordinates:      result.Coordinates,
		FormattedAddress: result.FormattedAddress,
		OriginalAddress:  raw,
		Method:           method,
		Confidence:       confidence,
		Warnings:         warnings,
	}
}

// Resolve runs the cascade for one raw address. It never returns an error:
// total exhaustion is the manual-required terminal state, which callers
// surface rather than retry.
func (r *Resolver) Resolve(ctx context.Context, rawAddress, driverID string) domain.GeocodeAttempt {
	var err error
	defer obs.Time(ctx, "resolver.Resolve")(&err)

	// Step 0: repair "<number>, <postcode> PARIS" lines before anything else.
	preprocessed, warnings := repairIncompleteAddress(rawAddress, driverID)

	// Step 1: the raw (or repaired) string verbatim.
	if result, ok := r.attempt(ctx, preprocessed); ok {
		return success(rawAddress, result, domain.MethodOriginal, domain.ConfidenceHigh, warnings)
	}

	// Step 2: normalized string.
	cleaned, cleanWarnings := CleanAddress(rawAddress)
	if !strings.EqualFold(cleaned, rawAddress) {
		if result, ok := r.attempt(ctx, cleaned); ok {
			return success(rawAddress, result, domain.MethodCleaned, domain.ConfidenceMedium,
				append(warnings, cleanWarnings...))
		}
	}

	// Step 3: cleaned string completed with the driver's district.
	district := districtFromDriverID(driverID)
	if !strings.Contains(strings.ToUpper(cleaned), strings.ToUpper(district)) {
		completed := cleaned + ", " + district
		if result, ok := r.attempt(ctx, completed); ok {
			return success(rawAddress, result, domain.MethodCompletedWithSector, domain.ConfidenceMedium,
				append(warnings, "address completed with driver sector"))
		}
	}

	// Step 4: street portion only, scoped to the district.
	partial := partialQuery(cleaned, district)
	if partial != cleaned {
		if result, ok := r.attempt(ctx, partial); ok {
			return success(rawAddress, result, domain.MethodPartialSearch, domain.ConfidenceLow,
				append(warnings, "address found by partial search"))
		}
	}

	log.Printf("resolution exhausted: addr=%q driver=%s", rawAddress, driverID)
	return domain.GeocodeAttempt{
		Success:         false,
		OriginalAddress: rawAddress,
		Method:          domain.MethodManualRequired,
		Confidence:      domain.ConfidenceNone,
		Warnings:        warnings,
	}
}

// partialQuery keeps only the text before the first comma and rescopes it to
// the district, discarding the rest of the address.
func partialQuery(address, district string) string {
	street := address
	if idx := strings.Index(address, ","); idx >= 0 {
		street = address[:idx]
	}
	return strings.TrimSpace(street) + ", " + district
}

// ResolveBatch runs the cascade over many addresses in fixed-size chunks with
// bounded parallelism inside each chunk and a short pause between chunks.
func (r *Resolver) ResolveBatch(ctx context.Context, addresses []string, driverID string) (*domain.BatchResolution, error) {
	var err error
	defer obs.Time(ctx, "resolver.ResolveBatch")(&err)

	batch := &domain.BatchResolution{
		TotalAddresses: len(addresses),
		Attempts:       make([]domain.GeocodeAttempt, len(addresses)),
	}

	for start := 0; start < len(addresses); start += r.chunkSize {
		if err = ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve batch: %w", err)
		}

		end := start + r.chunkSize
		if end > len(addresses) {
			end = len(addresses)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				batch.Attempts[i] = r.Resolve(ctx, addresses[i], driverID)
			}(i)
		}
		wg.Wait()

		if end < len(addresses) {
			timer := time.NewTimer(r.chunkPause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("resolve batch: %w", ctx.Err())
			case <-timer.C:
			}
		}
	}

	for _, attempt := range batch.Attempts {
		switch attempt.Method {
		case domain.MethodOriginal:
			batch.AutoValidated++
		case domain.MethodCleaned:
			batch.CleanedAuto++
		case domain.MethodCompletedWithSector:
			batch.CompletedAuto++
		case domain.MethodPartialSearch:
			batch.PartialFound++
		case domain.MethodManualRequired:
			batch.RequiresManual++
		}
		batch.Warnings = append(batch.Warnings, attempt.Warnings...)
	}

	if batch.CleanedAuto > 0 {
		batch.Warnings = append(batch.Warnings, fmt.Sprintf("%d addresses cleaned automatically", batch.CleanedAuto))
	}
	if batch.CompletedAuto > 0 {
		batch.Warnings = append(batch.Warnings, fmt.Sprintf("%d addresses completed with sector", batch.CompletedAuto))
	}
	if batch.PartialFound > 0 {
		batch.Warnings = append(batch.Warnings, fmt.Sprintf("%d addresses found by partial search", batch.PartialFound))
	}

	return batch, nil
}
