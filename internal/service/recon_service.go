package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
	"clearbooks/internal/port"
	"clearbooks/internal/recon"
)

// StartRunInput is the DTO for manually triggered reconciliation runs.
type StartRunInput struct {
	WindowStart    *time.Time `json:"window_start"`
	WindowEnd      *time.Time `json:"window_end"`
	IdempotencyKey string     `json:"idempotency_key"`
}

// ReconService defines the reconciliation run contract.
type ReconService interface {
	// StartRun creates a run job and executes it in the background. A run
	// already recorded under the same idempotency key is returned instead of
	// duplicated; ErrRunInProgress signals a queued or running duplicate.
	StartRun(ctx context.Context, orgID uuid.UUID, input StartRunInput) (*domain.ReconRun, error)
	// RunForOrganization executes one run synchronously over the default
	// trailing window. Used by the scheduler.
	RunForOrganization(ctx context.Context, orgID uuid.UUID) (*domain.ReconRun, error)
	// RunAllOrganizations reconciles every active organization. Organizations
	// are independent; one failure never aborts the others.
	RunAllOrganizations(ctx context.Context)
	GetRun(ctx context.Context, orgID, runID uuid.UUID) (*domain.ReconRun, error)
	ListRuns(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.ReconRun, int, error)
}

type reconService struct {
	runRepo     port.ReconRunRepository
	txnRepo     port.TransactionRepository
	invoiceRepo port.InvoiceRepository
	matchRepo   port.MatchRepository
	discRepo    port.DiscrepancyRepository
	vendorRepo  port.VendorRepository
	orgRepo     port.OrganizationRepository
	userRepo    port.UserRepository
	feed        port.InvoiceFeed
	digest      port.DigestSender
	engine      *recon.Engine
	cfg         config.ReconConfig
}

// NewReconService creates a new ReconService implementation. feed may be nil
// when no external accounting system is configured; runs then reconcile
// against previously mirrored invoices only.
func NewReconService(
	runRepo port.ReconRunRepository,
	txnRepo port.TransactionRepository,
	invoiceRepo port.InvoiceRepository,
	matchRepo port.MatchRepository,
	discRepo port.DiscrepancyRepository,
	vendorRepo port.VendorRepository,
	orgRepo port.OrganizationRepository,
	userRepo port.UserRepository,
	feed port.InvoiceFeed,
	digest port.DigestSender,
	cfg config.ReconConfig,
) ReconService {
	return &reconService{
		runRepo:     runRepo,
		txnRepo:     txnRepo,
		invoiceRepo: invoiceRepo,
		matchRepo:   matchRepo,
		discRepo:    discRepo,
		vendorRepo:  vendorRepo,
		orgRepo:     orgRepo,
		userRepo:    userRepo,
		feed:        feed,
		digest:      digest,
		engine:      recon.NewEngine(cfg),
		cfg:         cfg,
	}
}

func (s *reconService) StartRun(ctx context.Context, orgID uuid.UUID, input StartRunInput) (*domain.ReconRun, error) {
	from, to := s.resolveWindow(input.WindowStart, input.WindowEnd)
	key := input.IdempotencyKey
	if key == "" {
		key = fmt.Sprintf("%s:%s:%s", orgID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	existing, err := s.runRepo.GetByIdempotencyKey(ctx, orgID, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("reconService.StartRun: %w", err)
	}
	if existing != nil {
		switch existing.Status {
		case domain.ReconRunQueued, domain.ReconRunRunning:
			return existing, domain.ErrRunInProgress
		case domain.ReconRunSucceeded:
			return existing, nil
		case domain.ReconRunFailed:
			// Re-execute the failed run in place instead of growing a new row
			// under a colliding key.
			existing.Status = domain.ReconRunQueued
			existing.Error = ""
			if err := s.runRepo.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("reconService.StartRun: %w", err)
			}
			go s.executeRun(context.Background(), existing)
			return existing, nil
		}
	}

	run := &domain.ReconRun{
		ID:             uuid.New(),
		OrganizationID: orgID,
		WindowStart:    from,
		WindowEnd:      to,
		Status:         domain.ReconRunQueued,
		IdempotencyKey: key,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("reconService.StartRun: %w", err)
	}

	go s.executeRun(context.Background(), run)
	return run, nil
}

func (s *reconService) RunForOrganization(ctx context.Context, orgID uuid.UUID) (*domain.ReconRun, error) {
	from, to := s.resolveWindow(nil, nil)
	run := &domain.ReconRun{
		ID:             uuid.New(),
		OrganizationID: orgID,
		WindowStart:    from,
		WindowEnd:      to,
		Status:         domain.ReconRunQueued,
		IdempotencyKey: fmt.Sprintf("%s:scheduled:%s", orgID, time.Now().UTC().Format("2006-01-02")),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("reconService.RunForOrganization: %w", err)
	}
	s.executeRun(ctx, run)
	return run, nil
}

func (s *reconService) RunAllOrganizations(ctx context.Context) {
	orgs, err := s.orgRepo.ListActive(ctx)
	if err != nil {
		log.Printf("reconService.RunAllOrganizations: listing organizations: %v", err)
		return
	}
	for _, org := range orgs {
		if _, err := s.RunForOrganization(ctx, org.ID); err != nil {
			log.Printf("reconService.RunAllOrganizations: org %s: %v", org.ID, err)
		}
	}
}

func (s *reconService) GetRun(ctx context.Context, orgID, runID uuid.UUID) (*domain.ReconRun, error) {
	return s.runRepo.GetByID(ctx, orgID, runID)
}

func (s *reconService) ListRuns(ctx context.Context, orgID uuid.UUID, offset, limit int) ([]domain.ReconRun, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.runRepo.ListByOrganization(ctx, orgID, offset, limit)
}

func (s *reconService) resolveWindow(from, to *time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	end := now
	if to != nil {
		end = to.UTC()
	}
	start := end.AddDate(0, 0, -s.cfg.WindowDays)
	if from != nil {
		start = from.UTC()
	}
	return start, end
}

func (s *reconService) executeRun(ctx context.Context, run *domain.ReconRun) {
	now := time.Now().UTC()
	run.Status = domain.ReconRunRunning
	run.StartedAt = &now
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("reconService.executeRun: marking run %s running: %v", run.ID, err)
		return
	}

	if err := s.mirrorInvoices(ctx, run); err != nil {
		// Feed unavailability is not fatal: reconcile against the last
		// mirrored state and let the next run catch up.
		log.Printf("reconService.executeRun: invoice feed pull for run %s: %v", run.ID, err)
	}

	out, err := s.computeRun(ctx, run)
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = domain.ReconRunFailed
		run.Error = err.Error()
		if uerr := s.runRepo.Update(ctx, run); uerr != nil {
			log.Printf("reconService.executeRun: marking run %s failed: %v", run.ID, uerr)
		}
		return
	}

	for i := range out.Matches {
		if err := s.matchRepo.Create(ctx, &out.Matches[i]); err != nil {
			log.Printf("reconService.executeRun: persisting match for run %s: %v", run.ID, err)
			continue
		}
		switch out.Matches[i].State {
		case domain.MatchConfirmed:
			run.ConfirmedCount++
		case domain.MatchPending:
			run.PendingCount++
		}
	}
	for i := range out.Discrepancies {
		if err := s.discRepo.Create(ctx, &out.Discrepancies[i]); err != nil {
			log.Printf("reconService.executeRun: persisting discrepancy for run %s: %v", run.ID, err)
			continue
		}
		run.DiscrepancyCount++
	}

	run.Status = domain.ReconRunSucceeded
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("reconService.executeRun: marking run %s succeeded: %v", run.ID, err)
	}

	log.Printf("reconService.executeRun: run %s finished (%d confirmed, %d pending, %d discrepancies)",
		run.ID, run.ConfirmedCount, run.PendingCount, run.DiscrepancyCount)

	if run.PendingCount > 0 || run.DiscrepancyCount > 0 {
		s.sendDigest(ctx, run)
	}
}

// mirrorInvoices pulls the run window from the external feed and upserts
// each invoice locally. The feed stays authoritative for invoice content.
func (s *reconService) mirrorInvoices(ctx context.Context, run *domain.ReconRun) error {
	if s.feed == nil {
		return nil
	}
	invoices, err := s.feed.ListInvoices(ctx, run.OrganizationID, run.WindowStart, run.WindowEnd)
	if err != nil {
		return err
	}
	for i := range invoices {
		inv := &invoices[i]
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		inv.OrganizationID = run.OrganizationID
		if err := s.invoiceRepo.UpsertByExternalID(ctx, inv); err != nil {
			log.Printf("reconService.mirrorInvoices: upserting invoice %s: %v", inv.ExternalID, err)
		}
	}
	return nil
}

func (s *reconService) computeRun(ctx context.Context, run *domain.ReconRun) (recon.Output, error) {
	txns, err := s.txnRepo.ListByWindow(ctx, run.OrganizationID, run.WindowStart, run.WindowEnd)
	if err != nil {
		return recon.Output{}, fmt.Errorf("loading transactions: %w", err)
	}
	invoices, err := s.invoiceRepo.ListByWindow(ctx, run.OrganizationID, run.WindowStart, run.WindowEnd)
	if err != nil {
		return recon.Output{}, fmt.Errorf("loading invoices: %w", err)
	}
	matches, err := s.matchRepo.ListByWindow(ctx, run.OrganizationID, run.WindowStart, run.WindowEnd)
	if err != nil {
		return recon.Output{}, fmt.Errorf("loading matches: %w", err)
	}
	discs, err := s.discRepo.ListOpenByWindow(ctx, run.OrganizationID, run.WindowStart, run.WindowEnd)
	if err != nil {
		return recon.Output{}, fmt.Errorf("loading discrepancies: %w", err)
	}

	vendorNames := make(map[uuid.UUID]string)
	for i := range txns {
		vid := txns[i].VendorID
		if _, ok := vendorNames[vid]; ok {
			continue
		}
		vendor, err := s.vendorRepo.GetByID(ctx, run.OrganizationID, vid)
		if err != nil {
			log.Printf("reconService.computeRun: vendor %s lookup: %v", vid, err)
			continue
		}
		vendorNames[vid] = vendor.CleanName
	}

	return s.engine.Run(run.OrganizationID, recon.Input{
		Transactions:      txns,
		VendorNames:       vendorNames,
		Invoices:          invoices,
		ExistingMatches:   matches,
		OpenDiscrepancies: discs,
	}), nil
}

func (s *reconService) sendDigest(ctx context.Context, run *domain.ReconRun) {
	org, err := s.orgRepo.GetByID(ctx, run.OrganizationID)
	if err != nil {
		log.Printf("reconService.sendDigest: organization %s: %v", run.OrganizationID, err)
		return
	}
	reviewers, err := s.userRepo.ListReviewers(ctx, run.OrganizationID)
	if err != nil {
		log.Printf("reconService.sendDigest: listing reviewers for %s: %v", run.OrganizationID, err)
		return
	}

	_, pendingTotal, err := s.matchRepo.ListPending(ctx, run.OrganizationID, 0, 1)
	if err != nil {
		pendingTotal = run.PendingCount
	}
	_, openTotal, err := s.discRepo.ListOpen(ctx, run.OrganizationID, 0, 1)
	if err != nil {
		openTotal = run.DiscrepancyCount
	}

	digest := port.ReviewDigest{
		OrganizationName:  org.Name,
		PendingMatches:    pendingTotal,
		OpenDiscrepancies: openTotal,
		WindowStart:       run.WindowStart.Format("2006-01-02"),
		WindowEnd:         run.WindowEnd.Format("2006-01-02"),
	}
	for _, reviewer := range reviewers {
		if err := s.digest.SendReviewDigest(ctx, reviewer.Email, reviewer.FullName, digest); err != nil {
			log.Printf("reconService.sendDigest: sending to %s: %v", reviewer.Email, err)
		}
	}
}
