package models

import "time"

// SettlementKind identifica o meio de pagamento usado numa compra.
type SettlementKind string

const (
	SettlementNative SettlementKind = "native" // moeda nativa, via fila de saques
	SettlementStable SettlementKind = "stable" // ativo estável, liquidação síncrona
)

// TokenBalance representa o saldo de tokens de um investidor em um imóvel.
// A entrada é criada na primeira compra e nunca é removida.
type TokenBalance struct {
	PropertyID int64     `db:"property_id" json:"property_id"`
	Account    string    `db:"account" json:"account"`
	Tokens     int64     `db:"tokens" json:"tokens"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PurchaseReceipt resume o resultado de uma compra de tokens.
type PurchaseReceipt struct {
	PropertyID    int64          `json:"property_id"`
	Buyer         string         `json:"buyer"`
	TokenAmount   int64          `json:"token_amount"`
	TotalCost     int64          `json:"total_cost"`
	PlatformFee   int64          `json:"platform_fee"`
	OwnerPayout   int64          `json:"owner_payout"`
	Refund        int64          `json:"refund"`
	Settlement    SettlementKind `json:"settlement"`
	PoolCompleted bool           `json:"pool_completed"`
}
