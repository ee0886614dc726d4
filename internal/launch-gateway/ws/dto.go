package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// UserID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type   string `json:"type"`   // subscribe | unsubscribe | ping
	UserID string `json:"userId"` // requerido em subscribe/unsubscribe
}

// BalanceUpdate é o push enviado após cada passada de reconciliação concluída
type BalanceUpdate struct {
	UserID  string      `json:"userId"`
	Payload interface{} `json:"payload"`
}
