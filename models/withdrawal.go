package models

import "time"

// Status de um registro histórico de saque.
const (
	WithdrawalProcessing = "processing" // saldo zerado, transferência em andamento
	WithdrawalCompleted  = "completed"  // transferência confirmada
	WithdrawalRequeued   = "requeued"   // transferência falhou, valor recreditado na fila
)

// PendingWithdrawal é o saldo devido a uma conta na fila de saques
// (pull payment): o valor só sai quando o próprio credor saca.
type PendingWithdrawal struct {
	Account string `db:"account" json:"account"`
	Amount  int64  `db:"amount" json:"amount"`
}

// Withdrawal é o registro histórico de uma tentativa de saque.
type Withdrawal struct {
	ID        string    `db:"id" json:"id"`
	Account   string    `db:"account" json:"account"`
	Amount    int64     `db:"amount" json:"amount"`
	Status    string    `db:"status" json:"status"`
	TxID      string    `db:"tx_id" json:"tx_id"` // assinatura da transação de liquidação
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
