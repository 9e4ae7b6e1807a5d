package models

import "time"

// DividendDistribution é um registro imutável de distribuição de dividendos
// de um imóvel. O índice é sequencial por imóvel, começando em zero.
// AmountPerToken usa divisão inteira; o resto fica retido (política de dust).
type DividendDistribution struct {
	PropertyID     int64     `db:"property_id" json:"property_id"`
	Idx            int64     `db:"idx" json:"idx"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	AmountPerToken int64     `db:"amount_per_token" json:"amount_per_token"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// DividendClaim marca que uma conta já reivindicou uma distribuição.
// Vira true exatamente uma vez e nunca é revertido.
type DividendClaim struct {
	PropertyID int64     `db:"property_id" json:"property_id"`
	Account    string    `db:"account" json:"account"`
	Idx        int64     `db:"idx" json:"idx"`
	Amount     int64     `db:"amount" json:"amount"` // valor pago no momento da reivindicação
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
