package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/pincerlabs/pincer/app/models"
	"gorm.io/gorm"
)

// Service drives the settlement state machine: it admits webhooks through
// the idempotency guard, enforces at-most-once rebate per session, reserves
// budget and pushes each payout to a terminal state.
type Service struct {
	repo     Repository
	budget   *BudgetManager
	executor PayoutExecutor
	retry    RetryPolicy
	validate *validator.Validate
}

// NewService creates a settlement service from an injected repository and
// payout executor.
func NewService(repo Repository, executor PayoutExecutor, retry RetryPolicy) *Service {
	return &Service{
		repo:     repo,
		budget:   NewBudgetManager(repo),
		executor: executor,
		retry:    retry,
		validate: validator.New(),
	}
}

// NewServiceFromDB creates a settlement service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, executor PayoutExecutor) *Service {
	return NewService(NewRepository(db), executor, DefaultRetryPolicy())
}

// ProcessWebhook runs an authenticated conversion webhook through the
// settlement state machine. The caller has already verified the signature
// and freshness; nothing here re-checks authenticity.
//
// The returned Decision is cached on the webhook row, so redelivering the
// same webhook_id any number of times yields the identical answer without
// re-executing any step.
func (s *Service) ProcessWebhook(ctx context.Context, in ConversionWebhook) (*Decision, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	event := &models.WebhookEvent{
		WebhookID:      in.WebhookID,
		SessionID:      in.SessionID,
		UserAddress:    in.UserAddress,
		PurchaseAmount: in.PurchaseAmount,
		PurchaseAsset:  defaultString(in.PurchaseAsset, "USD"),
		MerchantID:     in.MerchantID,
		Outcome:        models.WebhookOutcomePending,
	}

	created, stored, err := s.repo.CreateWebhookIfNotExists(event)
	if err != nil {
		return nil, err
	}
	if !created {
		return s.replayDecision(stored), nil
	}

	fiberlog.Infof("processing webhook %s for session %s", in.WebhookID, in.SessionID)
	return s.settle(ctx, in)
}

// replayDecision answers a redelivered webhook from its stored row.
func (s *Service) replayDecision(stored *models.WebhookEvent) *Decision {
	if stored.Outcome == models.WebhookOutcomePending || stored.ResultJSON == "" {
		// Another request holds the ticket and has not finished yet.
		return &Decision{
			Status:    DecisionProcessing,
			WebhookID: stored.WebhookID,
			SessionID: stored.SessionID,
		}
	}

	var cached Decision
	if err := json.Unmarshal([]byte(stored.ResultJSON), &cached); err != nil {
		fiberlog.Errorf("corrupt cached decision for webhook %s: %v", stored.WebhookID, err)
		return &Decision{
			Status:    DecisionDuplicate,
			WebhookID: stored.WebhookID,
			SessionID: stored.SessionID,
			Reason:    stored.Outcome,
		}
	}
	cached.Status = DecisionDuplicate
	return &cached
}

// settle runs steps 1-6 of the settlement transition for a freshly admitted
// webhook. Every exit path finalizes the webhook row exactly once.
func (s *Service) settle(ctx context.Context, in ConversionWebhook) (*Decision, error) {
	// 1-2. Anti-replay and existence checks. Rejections here never touch
	// the budget and create no settlement row.
	session, err := s.repo.GetSession(in.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return s.reject(in, models.FailureReasonSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if session.RebateSettled {
		return s.reject(in, models.FailureReasonAlreadySettled)
	}

	campaign, reason, err := s.resolveCampaign(session)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return s.reject(in, reason)
	}

	// 3. Reserve budget and create the settlement row.
	if err := s.budget.Reserve(campaign.ID, campaign.RebateAmount); err != nil {
		switch {
		case errors.Is(err, ErrBudgetExhausted):
			return s.reject(in, models.FailureReasonBudgetExhausted)
		case errors.Is(err, ErrCampaignNotFound):
			return s.reject(in, models.FailureReasonCampaignMissing)
		case errors.Is(err, ErrCampaignInactive):
			return s.reject(in, models.FailureReasonCampaignPaused)
		default:
			return nil, err
		}
	}

	settlement := &models.Settlement{
		SettlementID: "settle-" + shortID(),
		SessionID:    session.SessionID,
		WebhookID:    in.WebhookID,
		CampaignID:   campaign.ID,
		UserAddress:  in.UserAddress,
		Amount:       campaign.RebateAmount,
		Asset:        campaign.RebateAsset,
		Network:      session.Network,
		State:        models.SettlementStateReserved,
	}
	if err := s.repo.CreateSettlement(settlement); err != nil {
		// The unique session index fires when a concurrent webhook for the
		// same session won the race. The reservation never left this code
		// path, so releasing it is safe.
		if relErr := s.budget.Release(campaign.ID, campaign.RebateAmount); relErr != nil {
			fiberlog.Errorf("budget release after settlement conflict failed for campaign %s: %v", campaign.ID, relErr)
		}
		return s.reject(in, models.FailureReasonAlreadySettled)
	}

	// 4. Invoke the payout executor.
	if err := s.repo.SetSettlementState(settlement.SettlementID, models.SettlementStatePaying); err != nil {
		return nil, err
	}

	txRef, payErr := executeWithRetry(ctx, s.executor, s.retry, in.UserAddress, settlement.Amount, settlement.Asset, settlement.Network)
	if payErr != nil {
		return s.failPayout(in, settlement, payErr)
	}

	// 5. Terminal success: settlement state and session flag commit in one
	// transaction.
	if err := s.repo.MarkSettled(settlement.SettlementID, session.SessionID, txRef); err != nil {
		// Funds moved but the ledger could not record it; park for manual
		// reconciliation without releasing budget.
		fiberlog.Errorf("settlement %s paid (tx %s) but could not be recorded: %v", settlement.SettlementID, txRef, err)
		return s.fail(in, settlement.SettlementID, models.FailureReasonAmbiguousPayout, err.Error())
	}

	decision := &Decision{
		Status:       DecisionAccepted,
		WebhookID:    in.WebhookID,
		SessionID:    session.SessionID,
		CampaignID:   campaign.ID,
		SettlementID: settlement.SettlementID,
		State:        models.SettlementStateSettled,
		TxRef:        txRef,
		Amount:       settlement.Amount,
		Asset:        settlement.Asset,
	}
	s.finalize(in.WebhookID, models.WebhookOutcomeAccepted, decision, "")
	fiberlog.Infof("rebate settled: %s tx %s (%s %s)", settlement.SettlementID, txRef, settlement.Amount.String(), settlement.Asset)
	return decision, nil
}

// failPayout resolves step 6: release budget only for failures that are
// unambiguously "not submitted".
func (s *Service) failPayout(in ConversionWebhook, settlement *models.Settlement, payErr error) (*Decision, error) {
	if IsAmbiguousPayout(payErr) {
		fiberlog.Errorf("ambiguous payout outcome for %s, holding reservation for reconciliation: %v", settlement.SettlementID, payErr)
		return s.fail(in, settlement.SettlementID, models.FailureReasonAmbiguousPayout, payErr.Error())
	}

	if err := s.budget.Release(settlement.CampaignID, settlement.Amount); err != nil {
		fiberlog.Errorf("budget release for failed settlement %s failed: %v", settlement.SettlementID, err)
	}
	return s.fail(in, settlement.SettlementID, models.FailureReasonPayoutFailed, payErr.Error())
}

// resolveCampaign picks the campaign for a session: the one it was bound to
// at registration, or the first fundable active campaign as fallback. A
// non-empty reason means the webhook is rejected.
func (s *Service) resolveCampaign(session *models.PaymentSession) (*models.Campaign, string, error) {
	if session.CampaignID != "" {
		campaign, err := s.repo.GetCampaign(session.CampaignID)
		if errors.Is(err, ErrCampaignNotFound) {
			return nil, models.FailureReasonCampaignMissing, nil
		}
		if err != nil {
			return nil, "", err
		}
		if !campaign.Active {
			return nil, models.FailureReasonCampaignPaused, nil
		}
		return campaign, "", nil
	}

	campaigns, err := s.repo.ListFundableCampaigns()
	if err != nil {
		return nil, "", err
	}
	if len(campaigns) == 0 {
		return nil, models.FailureReasonCampaignMissing, nil
	}
	return &campaigns[0], "", nil
}

func (s *Service) reject(in ConversionWebhook, reason string) (*Decision, error) {
	decision := &Decision{
		Status:    DecisionRejected,
		WebhookID: in.WebhookID,
		SessionID: in.SessionID,
		Reason:    reason,
	}
	s.finalize(in.WebhookID, models.WebhookOutcomeRejected, decision, reason)
	return decision, nil
}

func (s *Service) fail(in ConversionWebhook, settlementID, reason, detail string) (*Decision, error) {
	if err := s.repo.MarkSettlementFailed(settlementID, reason); err != nil {
		fiberlog.Errorf("could not mark settlement %s failed: %v", settlementID, err)
	}
	decision := &Decision{
		Status:       DecisionFailed,
		WebhookID:    in.WebhookID,
		SessionID:    in.SessionID,
		SettlementID: settlementID,
		State:        models.SettlementStateFailed,
		Reason:       reason,
	}
	s.finalize(in.WebhookID, models.WebhookOutcomeFailed, decision, detail)
	return decision, nil
}

// finalize commits the terminal decision onto the webhook row so every
// redelivery is answered from cache.
func (s *Service) finalize(webhookID, outcome string, decision *Decision, errMsg string) {
	payload, err := json.Marshal(decision)
	if err != nil {
		fiberlog.Errorf("could not marshal decision for webhook %s: %v", webhookID, err)
		payload = []byte("{}")
	}
	if err := s.repo.FinalizeWebhook(webhookID, outcome, string(payload), errMsg); err != nil {
		fiberlog.Errorf("could not finalize webhook %s: %v", webhookID, err)
	}
}

// RegisterSession records a verified payment session. Called by the payment
// verification collaborator after a 402 challenge is satisfied. Repeated
// registration of the same session_id is a no-op.
func (s *Service) RegisterSession(in SessionInput) (*models.PaymentSession, bool, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, false, err
	}

	session := &models.PaymentSession{
		SessionID:    in.SessionID,
		CampaignID:   in.CampaignID,
		UserAddress:  in.UserAddress,
		Network:      in.Network,
		AmountPaid:   in.AmountPaid,
		PaymentAsset: defaultString(in.PaymentAsset, "USDC"),
		PaymentHash:  in.PaymentHash,
		VerifiedAt:   time.Now().UTC(),
	}
	created, err := s.repo.CreateSessionIfNotExists(session)
	if err != nil {
		return nil, false, err
	}
	if !created {
		existing, err := s.repo.GetSession(in.SessionID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return session, true, nil
}

// GetStatus answers the settlement status query for a session.
func (s *Service) GetStatus(sessionID string) (*SettlementStatus, error) {
	settlement, err := s.repo.GetSettlementBySession(sessionID)
	if err != nil {
		return nil, err
	}
	return &SettlementStatus{
		SessionID:     settlement.SessionID,
		SettlementID:  settlement.SettlementID,
		State:         settlement.State,
		Amount:        settlement.Amount,
		Asset:         settlement.Asset,
		TxRef:         settlement.TxRef,
		FailureReason: settlement.FailureReason,
		UpdatedAt:     settlement.UpdatedAt,
	}, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
