package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/fracimo/services"

	"github.com/go-chi/chi/v5"
)

// WithdrawalHandler lida com a fila de saques.
type WithdrawalHandler struct {
	Service *services.LedgerService
}

// NewWithdrawalHandler cria uma nova instância do handler de saques.
func NewWithdrawalHandler(s *services.LedgerService) *WithdrawalHandler {
	return &WithdrawalHandler{Service: s}
}

// Withdraw saca todo o saldo pendente do chamador.
// POST /withdrawals
func (h *WithdrawalHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := h.Service.Withdraw(r.Context(), requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"amount_paid": amount})
}

// Pending retorna o saldo pendente de uma conta na fila.
// GET /withdrawals/pending/{address}
func (h *WithdrawalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	amount, err := h.Service.GetPendingWithdrawal(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"pending": amount})
}
