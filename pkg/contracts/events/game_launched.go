package events

type GameLaunched struct {
	UserID       string `json:"user_id"`
	GameID       string `json:"game_id"`
	TransferID   string `json:"transfer_id"`
	Platform     int    `json:"platform"` // 1=web, 2=mobile
	CreditAmount string `json:"credit_amount"`
	Currency     string `json:"currency"`
	TsUnixMs     int64  `json:"ts_unix_ms"`
}
