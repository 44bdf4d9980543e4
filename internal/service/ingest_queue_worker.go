package service

import (
	"context"
	"log"
	"sync"
	"time"

	"clearbooks/internal/port"
)

// IngestQueueConfig holds settings for the ingest queue worker.
type IngestQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// IngestQueueWorker polls for queued documents and dispatches them through
// the ingestion pipeline. Documents run as independent background tasks; the
// semaphore bounds how many run at once.
type IngestQueueWorker struct {
	docRepo    port.DocumentRepository
	docService DocumentService
	cfg        IngestQueueConfig
	wg         sync.WaitGroup
}

// NewIngestQueueWorker creates a new IngestQueueWorker.
func NewIngestQueueWorker(docRepo port.DocumentRepository, docService DocumentService, cfg IngestQueueConfig) *IngestQueueWorker {
	return &IngestQueueWorker{
		docRepo:    docRepo,
		docService: docService,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight document runs have finished.
func (w *IngestQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("ingestQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("ingestQueueWorker: shutting down, waiting for in-flight documents...")
			w.wg.Wait()
			log.Printf("ingestQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			docs, err := w.docRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll — exit gracefully
					continue
				}
				log.Printf("ingestQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range docs {
				doc := docs[i] // copy for goroutine
				doc.ProcessAttempts++

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight runs complete even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("ingestQueueWorker: dispatching document %s (attempt %d)", doc.ID, doc.ProcessAttempts)
					w.docService.ProcessDocument(runCtx, &doc, w.cfg.MaxRetries)
				}()
			}
		}
	}
}
