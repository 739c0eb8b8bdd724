package backend

import "time"

// ============================================================================
// Wire
// ============================================================================

const (
	pathBankTransfer = "/payments/banktransfer/"
	pathUpdate       = "/update"
	pathRefresh      = "/refresh"

	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	bearerPrefix        = "Bearer "
	contentTypeJSON     = "application/json"

	// maxErrorBodyBytes caps how much of a failed response is read.
	maxErrorBodyBytes = 64 << 10
)

// gjson paths into a backend error body.
const (
	gjsonUXTitle      = "ux.title"
	gjsonUXMessage    = "ux.message"
	gjsonUXIcon       = "ux.icon.url"
	gjsonUXStatusIcon = "ux.icon.status.url"
)

// ============================================================================
// Defaults
// ============================================================================

const (
	DefaultTimeout = 15 * time.Second

	// Sandbox behaviour
	DefaultSandboxFetchesToActive = 2
	DefaultSandboxAuthBaseURL     = "https://sandbox.banklink.test/authorise"
	sandboxTokenLifetime          = 4 * time.Hour
	sandboxLinkURL                = "https://cdn.plaid.com/link/v2/stable/link.html"
)

// ============================================================================
// Log messages
// ============================================================================

const (
	LogMsgRequestFailed   = "Backend request failed"
	LogMsgRequestComplete = "Backend request completed"
	LogMsgServerError     = "Backend returned error descriptor"
)

const (
	LogKeyMethod = "method"
	LogKeyPath   = "path"
	LogKeyStatus = "status"
)
