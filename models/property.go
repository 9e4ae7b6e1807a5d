package models

import "time"

// Property representa um imóvel listado na plataforma: a escritura (deed)
// pertence a um único dono por vez, e o pool de tokens fracionados é vendido
// contra ela.
type Property struct {
	ID               int64  `db:"id" json:"id"`
	Name             string `db:"name" json:"name"`
	Description      string `db:"description" json:"description"`
	Location         string `db:"location" json:"location"`
	ImageRef         string `db:"image_ref" json:"image_ref"` // hash IPFS, opaco para o core
	TotalValueUSD    int64  `db:"total_value_usd" json:"total_value_usd"`
	Area             int64  `db:"area" json:"area"`
	OwnerAccount     string `db:"owner_account" json:"owner_account"`
	TotalTokens      int64  `db:"total_tokens" json:"total_tokens"`
	TokensSold       int64  `db:"tokens_sold" json:"tokens_sold"`
	TotalRaised      int64  `db:"total_raised" json:"total_raised"` // acumulado arrecadado na moeda de liquidação
	IsActive         bool   `db:"is_active" json:"is_active"`
	EstimatedYieldBp int64  `db:"estimated_yield_bp" json:"estimated_yield_bp"` // basis points, 0-10000

	// Acumuladores de dividendos (na moeda de liquidação nativa).
	TotalDividendsDistributed int64      `db:"total_dividends_distributed" json:"total_dividends_distributed"`
	LastDividendAt            *time.Time `db:"last_dividend_at" json:"last_dividend_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TokensRemaining retorna quantos tokens ainda podem ser vendidos.
func (p Property) TokensRemaining() int64 {
	return p.TotalTokens - p.TokensSold
}
