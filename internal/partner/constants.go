package partner

// DefaultCallbackURL is where a redirect partner sends the user after
// authorizing. The partner name is appended as a query parameter.
const DefaultCallbackURL = "banklink://linking/callback"

const callbackPartnerParam = "partner"

// Log messages
const (
	LogMsgSubmitting      = "Submitting account selection"
	LogMsgSubmitFailed    = "Account selection submission failed"
	LogMsgSubmitEchoed    = "Backend echoed linked bank on submission"
	LogKeyPartner         = "partner"
	LogKeyFlow            = "flow"
	LogKeyStep            = "step"
	LogKeyState           = "state"
	LogKeyEchoedStatus    = "error_status"
	LogKeyHasAuthorizeURL = "has_authorization_url"
)
