package dto

import "time"

type SyncResponse struct {
	UserID    string   `json:"userId"`
	Fetched   int      `json:"fetched"`
	New       int      `json:"new"`
	Committed int      `json:"committed"`
	Failed    int      `json:"failed"`
	Balance   *float64 `json:"balance,omitempty"`
	Skipped   bool     `json:"skipped,omitempty"` // passada virou no-op (vendor fora ou sync em andamento)
	Message   string   `json:"message,omitempty"`
}

type LaunchResponse struct {
	Status      string `json:"status"` // redirecting | blocked | failed
	RedirectURL string `json:"redirect_url,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
}

type BalanceResponse struct {
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	FetchedAt time.Time `json:"fetched_at"`
}
