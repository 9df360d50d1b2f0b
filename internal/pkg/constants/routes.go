package constants

// Static route constants
const (
	HealthRoute            = "/up"
	ConversionWebhookRoute = "/webhooks/conversion"
	SettlementStatusRoute  = "/settlements/:session_id"
	SettlementsRoute       = "/settlements"
	SessionsRoute          = "/sessions"
	SessionOffersRoute     = "/sessions/:session_id/offers"
	SessionWebhooksRoute   = "/sessions/:session_id/webhooks"
	CampaignsRoute         = "/campaigns"
	CampaignRoute          = "/campaigns/:id"
)
