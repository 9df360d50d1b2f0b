package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/pincerlabs/pincer/app/models"
	"github.com/shopspring/decimal"
)

// fakeRepository is an in-memory Repository with the same atomicity
// semantics as the MySQL implementation: insert-if-absent admission,
// conditional budget updates, a unique settlement-per-session constraint
// and the monotonic rebate_settled flag.
type fakeRepository struct {
	mu          sync.Mutex
	webhooks    map[string]*models.WebhookEvent
	sessions    map[string]*models.PaymentSession
	campaigns   map[string]*models.Campaign
	settlements map[string]*models.Settlement

	// settlementBySession enforces the unique index.
	settlementBySession map[string]string

	failMarkSettled bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		webhooks:            make(map[string]*models.WebhookEvent),
		sessions:            make(map[string]*models.PaymentSession),
		campaigns:           make(map[string]*models.Campaign),
		settlements:         make(map[string]*models.Settlement),
		settlementBySession: make(map[string]string),
	}
}

func (f *fakeRepository) addCampaign(c models.Campaign) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().Add(time.Duration(len(f.campaigns)) * time.Second)
	}
	f.campaigns[c.ID] = &c
}

func (f *fakeRepository) addSession(s models.PaymentSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.SessionID] = &s
}

func (f *fakeRepository) remaining(campaignID string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.campaigns[campaignID].RemainingBudget
}

func (f *fakeRepository) settlement(id string) *models.Settlement {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := *f.settlements[id]
	return &st
}

func (f *fakeRepository) CreateWebhookIfNotExists(ev *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.webhooks[ev.WebhookID]; ok {
		copy := *stored
		return false, &copy, nil
	}
	ev.ReceivedAt = time.Now()
	stored := *ev
	f.webhooks[ev.WebhookID] = &stored
	copy := stored
	return true, &copy, nil
}

func (f *fakeRepository) FinalizeWebhook(webhookID, outcome, resultJSON, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.webhooks[webhookID]
	if !ok {
		return fmt.Errorf("webhook %s not found", webhookID)
	}
	now := time.Now()
	ev.Outcome = outcome
	ev.ResultJSON = resultJSON
	ev.ErrorMessage = errMsg
	ev.ProcessedAt = &now
	return nil
}

func (f *fakeRepository) CreateSessionIfNotExists(s *models.PaymentSession) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[s.SessionID]; ok {
		return false, nil
	}
	stored := *s
	f.sessions[s.SessionID] = &stored
	return true, nil
}

func (f *fakeRepository) GetSession(sessionID string) (*models.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copy := *s
	return &copy, nil
}

func (f *fakeRepository) GetCampaign(id string) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	copy := *c
	return &copy, nil
}

func (f *fakeRepository) ListFundableCampaigns() ([]models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Campaign
	for _, c := range f.campaigns {
		if c.Active && c.RemainingBudget.GreaterThanOrEqual(c.RebateAmount) {
			out = append(out, *c)
		}
	}
	// Oldest first, like the SQL ORDER BY created_at.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) ReserveBudget(campaignID string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return ErrCampaignNotFound
	}
	if !c.Active {
		return ErrCampaignInactive
	}
	if c.RemainingBudget.LessThan(amount) {
		return ErrBudgetExhausted
	}
	c.RemainingBudget = c.RemainingBudget.Sub(amount)
	return nil
}

func (f *fakeRepository) ReleaseBudget(campaignID string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[campaignID]
	if !ok {
		return ErrCampaignNotFound
	}
	next := c.RemainingBudget.Add(amount)
	if next.GreaterThan(c.TotalBudget) {
		next = c.TotalBudget
	}
	c.RemainingBudget = next
	return nil
}

func (f *fakeRepository) CreateSettlement(st *models.Settlement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.settlementBySession[st.SessionID]; ok {
		return fmt.Errorf("duplicate entry for key ux_settlements_session")
	}
	stored := *st
	f.settlements[st.SettlementID] = &stored
	f.settlementBySession[st.SessionID] = st.SettlementID
	return nil
}

func (f *fakeRepository) SetSettlementState(settlementID, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.settlements[settlementID]
	if !ok {
		return fmt.Errorf("settlement %s not found", settlementID)
	}
	st.State = state
	return nil
}

func (f *fakeRepository) MarkSettled(settlementID, sessionID, txRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMarkSettled {
		return fmt.Errorf("simulated commit failure")
	}
	st, ok := f.settlements[settlementID]
	if !ok {
		return fmt.Errorf("settlement %s not found", settlementID)
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if s.RebateSettled {
		return ErrSessionAlreadySettled
	}
	st.State = models.SettlementStateSettled
	st.TxRef = txRef
	s.RebateSettled = true
	s.SettlementID = settlementID
	return nil
}

func (f *fakeRepository) MarkSettlementFailed(settlementID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.settlements[settlementID]
	if !ok {
		return fmt.Errorf("settlement %s not found", settlementID)
	}
	st.State = models.SettlementStateFailed
	st.FailureReason = reason
	return nil
}

func (f *fakeRepository) GetSettlementBySession(sessionID string) (*models.Settlement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.settlementBySession[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copy := *f.settlements[id]
	return &copy, nil
}
