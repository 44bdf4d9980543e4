package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clearbooks/internal/config"
	"clearbooks/internal/domain"
	"clearbooks/internal/port"
	. "clearbooks/internal/service"
	"clearbooks/mocks"
)

type reconMocks struct {
	runRepo     *mocks.MockReconRunRepo
	txnRepo     *mocks.MockTransactionRepo
	invoiceRepo *mocks.MockInvoiceRepo
	matchRepo   *mocks.MockMatchRepo
	discRepo    *mocks.MockDiscrepancyRepo
	vendorRepo  *mocks.MockVendorRepo
	orgRepo     *mocks.MockOrganizationRepo
	userRepo    *mocks.MockUserRepo
	feed        *mocks.MockInvoiceFeed
	digest      *mocks.MockDigestSender
}

func newReconMocks() *reconMocks {
	return &reconMocks{
		runRepo:     new(mocks.MockReconRunRepo),
		txnRepo:     new(mocks.MockTransactionRepo),
		invoiceRepo: new(mocks.MockInvoiceRepo),
		matchRepo:   new(mocks.MockMatchRepo),
		discRepo:    new(mocks.MockDiscrepancyRepo),
		vendorRepo:  new(mocks.MockVendorRepo),
		orgRepo:     new(mocks.MockOrganizationRepo),
		userRepo:    new(mocks.MockUserRepo),
		feed:        new(mocks.MockInvoiceFeed),
		digest:      new(mocks.MockDigestSender),
	}
}

func (m *reconMocks) service(feed port.InvoiceFeed) ReconService {
	cfg := config.ReconConfig{
		AutoConfirmThreshold: 0.95,
		ReviewThreshold:      0.60,
		DateToleranceDays:    5,
		AmountTolerancePct:   0.01,
		AmountWeight:         0.5,
		DateWeight:           0.2,
		TextWeight:           0.3,
		WindowDays:           30,
	}
	return NewReconService(
		m.runRepo, m.txnRepo, m.invoiceRepo, m.matchRepo, m.discRepo,
		m.vendorRepo, m.orgRepo, m.userRepo, feed, m.digest, cfg,
	)
}

func TestReconService_RunForOrganization(t *testing.T) {
	m := newReconMocks()
	svc := m.service(m.feed)

	orgID := uuid.New()
	vendorID := uuid.New()
	now := time.Now().UTC()

	// One ledger transaction and one feed invoice four days apart with weak
	// text affinity: ends as a pending match, which triggers the digest.
	txn := domain.Transaction{
		ID:       uuid.New(),
		VendorID: vendorID,
		Date:     now.AddDate(0, 0, -3),
		Amount:   decimal.RequireFromString("-500.00"),
	}
	inv := domain.ExternalInvoice{
		ExternalID: "INV-200",
		VendorName: "Acme Holdings Group",
		Amount:     decimal.RequireFromString("500.00"),
		IssuedOn:   now.AddDate(0, 0, -7),
	}

	m.runRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReconRun")).Return(nil)
	m.runRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ReconRun")).Return(nil)

	m.feed.On("ListInvoices", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.ExternalInvoice{inv}, nil)
	m.invoiceRepo.On("UpsertByExternalID", mock.Anything, mock.MatchedBy(func(i *domain.ExternalInvoice) bool {
		return i.OrganizationID == orgID && i.ID != uuid.Nil
	})).Return(nil)

	storedInv := inv
	storedInv.ID = uuid.New()
	storedInv.OrganizationID = orgID

	m.txnRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.Transaction{txn}, nil)
	m.invoiceRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.ExternalInvoice{storedInv}, nil)
	m.matchRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.Match{}, nil)
	m.discRepo.On("ListOpenByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.Discrepancy{}, nil)
	m.vendorRepo.On("GetByID", mock.Anything, orgID, vendorID).
		Return(&domain.Vendor{ID: vendorID, CleanName: "Acme Corp"}, nil)

	m.matchRepo.On("Create", mock.Anything, mock.MatchedBy(func(match *domain.Match) bool {
		return match.State == domain.MatchPending && match.TransactionID == txn.ID
	})).Return(nil)

	m.orgRepo.On("GetByID", mock.Anything, orgID).
		Return(&domain.Organization{ID: orgID, Name: "Acme Org"}, nil)
	m.userRepo.On("ListReviewers", mock.Anything, orgID).
		Return([]domain.User{{Email: "reviewer@example.com", FullName: "Pat Reviewer"}}, nil)
	m.matchRepo.On("ListPending", mock.Anything, orgID, 0, 1).Return([]domain.Match{}, 1, nil)
	m.discRepo.On("ListOpen", mock.Anything, orgID, 0, 1).Return([]domain.Discrepancy{}, 0, nil)
	m.digest.On("SendReviewDigest", mock.Anything, "reviewer@example.com", "Pat Reviewer",
		mock.MatchedBy(func(d port.ReviewDigest) bool {
			return d.OrganizationName == "Acme Org" && d.PendingMatches == 1
		})).Return(nil)

	run, err := svc.RunForOrganization(context.Background(), orgID)
	require.NoError(t, err)

	assert.Equal(t, domain.ReconRunSucceeded, run.Status)
	assert.Equal(t, 0, run.ConfirmedCount)
	assert.Equal(t, 1, run.PendingCount)
	assert.Equal(t, 0, run.DiscrepancyCount)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.FinishedAt)
	m.digest.AssertExpectations(t)
	m.invoiceRepo.AssertExpectations(t)
}

func TestReconService_RunForOrganization_FeedFailureIsNotFatal(t *testing.T) {
	m := newReconMocks()
	svc := m.service(m.feed)

	orgID := uuid.New()

	m.runRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.runRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.feed.On("ListInvoices", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return(nil, errors.New("feed unavailable"))

	// Empty window: nothing to reconcile, no digest.
	m.txnRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.Transaction{}, nil)
	m.invoiceRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.ExternalInvoice{}, nil)
	m.matchRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.Match{}, nil)
	m.discRepo.On("ListOpenByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return([]domain.Discrepancy{}, nil)

	run, err := svc.RunForOrganization(context.Background(), orgID)
	require.NoError(t, err)

	assert.Equal(t, domain.ReconRunSucceeded, run.Status)
	m.digest.AssertNotCalled(t, "SendReviewDigest")
}

func TestReconService_RunForOrganization_ComputeFailure(t *testing.T) {
	m := newReconMocks()
	svc := m.service(nil)

	orgID := uuid.New()

	m.runRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.runRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.txnRepo.On("ListByWindow", mock.Anything, orgID, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	run, err := svc.RunForOrganization(context.Background(), orgID)
	require.NoError(t, err)

	assert.Equal(t, domain.ReconRunFailed, run.Status)
	assert.Contains(t, run.Error, "loading transactions")
	m.matchRepo.AssertNotCalled(t, "Create")
}

func TestReconService_StartRun_DuplicateInProgress(t *testing.T) {
	m := newReconMocks()
	svc := m.service(nil)

	orgID := uuid.New()
	existing := &domain.ReconRun{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Status:         domain.ReconRunRunning,
	}

	m.runRepo.On("GetByIdempotencyKey", mock.Anything, orgID, "manual-1").Return(existing, nil)

	run, err := svc.StartRun(context.Background(), orgID, StartRunInput{IdempotencyKey: "manual-1"})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	assert.Equal(t, existing.ID, run.ID)
	m.runRepo.AssertNotCalled(t, "Create")
}

func TestReconService_StartRun_SucceededKeyReturnsExistingRun(t *testing.T) {
	m := newReconMocks()
	svc := m.service(nil)

	orgID := uuid.New()
	existing := &domain.ReconRun{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Status:         domain.ReconRunSucceeded,
		ConfirmedCount: 7,
	}

	m.runRepo.On("GetByIdempotencyKey", mock.Anything, orgID, "manual-2").Return(existing, nil)

	run, err := svc.StartRun(context.Background(), orgID, StartRunInput{IdempotencyKey: "manual-2"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, run.ID)
	assert.Equal(t, 7, run.ConfirmedCount)
	m.runRepo.AssertNotCalled(t, "Create")
}

func TestReconService_StartRun_CreatesRunWithDerivedKey(t *testing.T) {
	m := newReconMocks()
	svc := m.service(nil)

	orgID := uuid.New()
	executing := make(chan struct{})

	m.runRepo.On("GetByIdempotencyKey", mock.Anything, orgID, mock.AnythingOfType("string")).
		Return(nil, domain.ErrNotFound)
	m.runRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ReconRun) bool {
		return r.Status == domain.ReconRunQueued && r.IdempotencyKey != ""
	})).Return(nil)
	// Fail the first background update so the goroutine stops deterministically.
	m.runRepo.On("Update", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(executing) }).
		Return(errors.New("shutting down"))

	from := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	run, err := svc.StartRun(context.Background(), orgID, StartRunInput{WindowStart: &from, WindowEnd: &to})
	require.NoError(t, err)

	assert.Equal(t, domain.ReconRunQueued, run.Status)
	expectedKey := orgID.String() + ":2026-07-01:2026-07-31"
	assert.Equal(t, expectedKey, run.IdempotencyKey)
	assert.True(t, run.WindowStart.Equal(from))
	assert.True(t, run.WindowEnd.Equal(to))

	select {
	case <-executing:
	case <-time.After(2 * time.Second):
		t.Fatal("background execution never started")
	}
}

func TestReconService_RunAllOrganizations_ContinuesPastFailures(t *testing.T) {
	m := newReconMocks()
	svc := m.service(nil)

	orgA := domain.Organization{ID: uuid.New(), Name: "A"}
	orgB := domain.Organization{ID: uuid.New(), Name: "B"}

	m.orgRepo.On("ListActive", mock.Anything).Return([]domain.Organization{orgA, orgB}, nil)

	// Org A fails at run creation; org B completes an empty run.
	m.runRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ReconRun) bool {
		return r.OrganizationID == orgA.ID
	})).Return(errors.New("insert failed"))
	m.runRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.ReconRun) bool {
		return r.OrganizationID == orgB.ID
	})).Return(nil)
	m.runRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	m.txnRepo.On("ListByWindow", mock.Anything, orgB.ID, mock.Anything, mock.Anything).
		Return([]domain.Transaction{}, nil)
	m.invoiceRepo.On("ListByWindow", mock.Anything, orgB.ID, mock.Anything, mock.Anything).
		Return([]domain.ExternalInvoice{}, nil)
	m.matchRepo.On("ListByWindow", mock.Anything, orgB.ID, mock.Anything, mock.Anything).
		Return([]domain.Match{}, nil)
	m.discRepo.On("ListOpenByWindow", mock.Anything, orgB.ID, mock.Anything, mock.Anything).
		Return([]domain.Discrepancy{}, nil)

	svc.RunAllOrganizations(context.Background())

	m.runRepo.AssertExpectations(t)
}
