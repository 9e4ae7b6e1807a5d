package models

import (
	"encoding/json"
	"time"
)

// Tipos de eventos emitidos pelo core contábil. Consumidores externos podem
// reconstruir o estado reproduzindo a sequência de eventos em ordem.
const (
	EventPropertyListed      = "PropertyListed"
	EventDeedTransferred     = "DeedTransferred"
	EventTokensPurchased     = "TokensPurchased"
	EventPoolCompleted       = "PoolCompleted"
	EventDividendDistributed = "DividendDistributed"
	EventDividendClaimed     = "DividendClaimed"
	EventWithdrawalQueued    = "WithdrawalQueued"
	EventWithdrawalCompleted = "WithdrawalCompleted"
)

// Event é um registro append-only de uma notificação do core.
type Event struct {
	ID        string          `db:"id" json:"id"`
	Seq       int64           `db:"seq" json:"seq"`
	Type      string          `db:"type" json:"type"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Payloads dos eventos. Os conjuntos de campos fazem parte do contrato
// externo: não remover campos sem versionar o evento.

type PropertyListedPayload struct {
	PropertyID    int64  `json:"property_id"`
	Name          string `json:"name"`
	TotalValueUSD int64  `json:"total_value_usd"`
	TotalTokens   int64  `json:"total_tokens"`
	OwnerAccount  string `json:"owner_account"`
}

type DeedTransferredPayload struct {
	PropertyID  int64  `json:"property_id"`
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
}

type TokensPurchasedPayload struct {
	PropertyID     int64          `json:"property_id"`
	BuyerAccount   string         `json:"buyer_account"`
	TokenAmount    int64          `json:"token_amount"`
	TotalPaid      int64          `json:"total_paid"`
	SettlementKind SettlementKind `json:"settlement_kind"`
}

type PoolCompletedPayload struct {
	PropertyID  int64 `json:"property_id"`
	TotalRaised int64 `json:"total_raised"`
}

type DividendDistributedPayload struct {
	PropertyID        int64 `json:"property_id"`
	DistributionIndex int64 `json:"distribution_index"`
	TotalAmount       int64 `json:"total_amount"`
	AmountPerToken    int64 `json:"amount_per_token"`
}

type DividendClaimedPayload struct {
	PropertyID      int64  `json:"property_id"`
	InvestorAccount string `json:"investor_account"`
	Amount          int64  `json:"amount"`
}

type WithdrawalQueuedPayload struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type WithdrawalCompletedPayload struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}
