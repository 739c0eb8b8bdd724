package worker

import "time"

// ============================================================================
// Defaults
// ============================================================================

const (
	DefaultWorkerCount     = 4
	DefaultQueueSize       = 256
	DefaultJobTimeout      = 30 * time.Second
	DefaultCleanupInterval = 10 * time.Minute
)

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

const (
	LogMsgWorkerJobFailed   = "Worker job failed"
	LogMsgWorkerJobPanicked = "Worker job panicked"
	LogMsgWorkerQueueFull   = "Worker queue full, job rejected"
)

// ============================================================================
// Log Messages - Cleanup Worker
// ============================================================================

const (
	LogMsgCleanupCompleted       = "Expired pending links removed"
	LogMsgCleanupFailed          = "Pending link cleanup failed"
	LogMsgCleanupShutdown        = "Cleanup worker shutdown complete"
	LogMsgCleanupShutdownTimeout = "Cleanup worker shutdown timeout, a cleanup may still be running"
)

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount      = 2
	TestQueueSize        = 10
	TestExpectedJobCount = 2
)
