package events

// VendorSyncCompleted é emitido ao final de cada passada de reconciliação,
// com ou sem falhas parciais de batch.
type VendorSyncCompleted struct {
	UserID        string `json:"user_id"`
	Day           string `json:"day"` // dia UTC da passada, "YYYY-MM-DD"
	Fetched       int    `json:"fetched"`
	New           int    `json:"new"`
	Committed     int    `json:"committed"`
	Failed        int    `json:"failed"`
	LastTimestamp string `json:"last_timestamp"` // watermark após a passada
	LastSerial    string `json:"last_serial"`
	DurationMs    int64  `json:"duration_ms"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
