package postgres

// Error Messages - Pending Link Operations
const (
	ErrMsgFailedToSavePendingLink     = "failed to save pending link"
	ErrMsgFailedToGetPendingLink      = "failed to get pending link"
	ErrMsgFailedToDeletePendingLink   = "failed to delete pending link"
	ErrMsgFailedToCleanupPendingLinks = "failed to clean up expired pending links"
)
