package dto

type SyncRequest struct {
	UserID string `json:"userId"`
}

type LaunchRequest struct {
	UserID             string   `json:"userId"`
	GameID             string   `json:"gameId"`
	GameCategory       string   `json:"gameCategory"` // ex: "slot", "fishing", "live"
	EligibleCategories []string `json:"eligible_categories"`
	Platform           int      `json:"platform"` // 1=web, 2=mobile (informado pelo front)
}
