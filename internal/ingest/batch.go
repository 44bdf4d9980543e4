package ingest

import "sync"

// VendorResolution is one settled vendor-cleanup result, cached per batch.
type VendorResolution struct {
	CleanName   string
	IsRecurring bool
	Fallback    bool
}

// CategoryResolution is one settled classification result, cached per batch.
type CategoryResolution struct {
	Name     string
	Fallback bool
}

// BatchContext carries the per-ingestion-run resolution caches. One value is
// constructed per document run and passed through the pipeline stages; no
// cache state survives the batch. Safe for concurrent population during the
// resolve stage.
type BatchContext struct {
	mu         sync.RWMutex
	vendors    map[string]VendorResolution   // VendorKey -> resolution
	categories map[string]CategoryResolution // cleanVendor + "\x00" + description -> resolution
}

// NewBatchContext creates an empty BatchContext.
func NewBatchContext() *BatchContext {
	return &BatchContext{
		vendors:    make(map[string]VendorResolution),
		categories: make(map[string]CategoryResolution),
	}
}

// Vendor returns the cached resolution for a vendor key.
func (b *BatchContext) Vendor(key string) (VendorResolution, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.vendors[key]
	return v, ok
}

// PutVendor caches a vendor resolution. First writer wins: a key already
// settled is never overwritten within the batch, even by a non-fallback result.
func (b *BatchContext) PutVendor(key string, res VendorResolution) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.vendors[key]; !ok {
		b.vendors[key] = res
	}
}

// CategoryKey builds the classification cache key for a (clean vendor,
// description) pair.
func CategoryKey(cleanVendor, description string) string {
	return cleanVendor + "\x00" + description
}

// Category returns the cached resolution for a (vendor, description) pair key.
func (b *BatchContext) Category(key string) (CategoryResolution, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.categories[key]
	return c, ok
}

// PutCategory caches a category resolution, first writer wins.
func (b *BatchContext) PutCategory(key string, res CategoryResolution) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.categories[key]; !ok {
		b.categories[key] = res
	}
}

// VendorCount reports how many vendor keys have settled.
func (b *BatchContext) VendorCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vendors)
}

// CategoryCount reports how many classification pairs have settled.
func (b *BatchContext) CategoryCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.categories)
}
