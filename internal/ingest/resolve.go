package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"clearbooks/internal/port"
)

// FallbackCategory is the deterministic category applied when the
// classification provider fails.
const FallbackCategory = "Operations & Misc"

// ResolveStats counts external-call outcomes for one resolve stage.
type ResolveStats struct {
	VendorCalls       int
	VendorFallbacks   int
	CategoryCalls     int
	CategoryFallbacks int
}

// Resolver runs the vendor-normalization and category-classification stage:
// every unique vendor key, then every unique (clean vendor, description)
// pair, is dispatched concurrently under a fixed-size semaphore. The stage
// returns only after every dispatched call has settled — by success or by
// deterministic fallback. Provider failures are never fatal to the batch.
type Resolver struct {
	normalizer     port.VendorNormalizer
	classifier     port.CategoryClassifier
	maxConcurrency int
	callTimeout    time.Duration
}

// NewResolver creates a Resolver with the given concurrency bound.
func NewResolver(normalizer port.VendorNormalizer, classifier port.CategoryClassifier, maxConcurrency int, callTimeout time.Duration) *Resolver {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Resolver{
		normalizer:     normalizer,
		classifier:     classifier,
		maxConcurrency: maxConcurrency,
		callTimeout:    callTimeout,
	}
}

type vendorJob struct {
	key      string
	rawName  string
}

type categoryJob struct {
	key         string
	vendor      string
	description string
	amount      decimal.Decimal
}

// Resolve populates the batch caches for all rows. Rows sharing a vendor key
// or a (vendor, description) pair issue one external call between them.
func (r *Resolver) Resolve(ctx context.Context, batch *BatchContext, rows []TransactionRow) ResolveStats {
	var stats ResolveStats
	var mu sync.Mutex
	sem := make(chan struct{}, r.maxConcurrency)

	// Phase 1: vendor normalization over unique keys.
	var vendorJobs []vendorJob
	seen := make(map[string]bool)
	for _, row := range rows {
		key := VendorKey(row.RawVendor)
		if key == "" || seen[key] {
			continue
		}
		if _, ok := batch.Vendor(key); ok {
			continue
		}
		seen[key] = true
		vendorJobs = append(vendorJobs, vendorJob{key: key, rawName: row.RawVendor})
	}

	var wg sync.WaitGroup
	for _, job := range vendorJobs {
		job := job
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			defer cancel()

			res, err := r.normalizer.NormalizeVendor(callCtx, job.rawName)
			mu.Lock()
			stats.VendorCalls++
			mu.Unlock()
			if err != nil {
				log.Printf("ingest.Resolver: vendor normalization failed for key %q, using fallback: %v", job.key, err)
				batch.PutVendor(job.key, VendorResolution{
					CleanName: FallbackVendorName(job.rawName),
					Fallback:  true,
				})
				mu.Lock()
				stats.VendorFallbacks++
				mu.Unlock()
				return
			}
			batch.PutVendor(job.key, VendorResolution{
				CleanName:   res.CleanName,
				IsRecurring: res.IsRecurring,
			})
		}()
	}
	wg.Wait()

	// Phase 2: classification over unique (clean vendor, description) pairs.
	// Runs after phase 1 so pair keys use settled clean names.
	var categoryJobs []categoryJob
	seenPairs := make(map[string]bool)
	for _, row := range rows {
		vres, ok := batch.Vendor(VendorKey(row.RawVendor))
		if !ok {
			continue
		}
		key := CategoryKey(vres.CleanName, row.Description)
		if seenPairs[key] {
			continue
		}
		if _, ok := batch.Category(key); ok {
			continue
		}
		seenPairs[key] = true
		categoryJobs = append(categoryJobs, categoryJob{
			key:         key,
			vendor:      vres.CleanName,
			description: row.Description,
			amount:      row.Amount,
		})
	}

	for _, job := range categoryJobs {
		job := job
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
			defer cancel()

			category, err := r.classifier.Classify(callCtx, job.vendor, job.description, job.amount)
			mu.Lock()
			stats.CategoryCalls++
			mu.Unlock()
			if err != nil {
				log.Printf("ingest.Resolver: classification failed for vendor %q, using fallback: %v", job.vendor, err)
				batch.PutCategory(job.key, CategoryResolution{Name: FallbackCategory, Fallback: true})
				mu.Lock()
				stats.CategoryFallbacks++
				mu.Unlock()
				return
			}
			batch.PutCategory(job.key, CategoryResolution{Name: category})
		}()
	}
	wg.Wait()

	return stats
}
