package ledger

import (
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// GenerateOffers returns the sponsored offers available to a verified
// payment session: one per active campaign whose remaining budget still
// covers a rebate. No budget is reserved at offer time; reservation happens
// when the conversion webhook settles, so an unredeemed offer never strands
// funds.
func (s *Service) GenerateOffers(sessionID string) ([]SponsoredOffer, error) {
	session, err := s.repo.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.RebateSettled {
		return nil, ErrSessionAlreadySettled
	}

	campaigns, err := s.repo.ListFundableCampaigns()
	if err != nil {
		return nil, err
	}

	offers := make([]SponsoredOffer, 0, len(campaigns))
	for _, c := range campaigns {
		offers = append(offers, SponsoredOffer{
			OfferID:      "offer-" + shortID(),
			CampaignID:   c.ID,
			MerchantName: c.MerchantName,
			OfferText:    c.OfferText,
			RebateAmount: c.RebateAmount,
			RebateAsset:  c.RebateAsset,
			Network:      c.RebateNetwork,
			SessionID:    session.SessionID,
		})
	}

	fiberlog.Infof("generated %d offers for session %s", len(offers), sessionID)
	return offers, nil
}
