package topics

const (
	// Sync
	VendorSyncCompleted = "vendor_sync_completed"

	// Launch
	GameLaunched = "game_launched"

	// DLQs
	VendorSyncCompletedDLQ = "vendor_sync_completed_dlq"
)
