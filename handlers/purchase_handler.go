package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/fracimo/services"
)

// PurchaseHandler lida com as compras de tokens.
type PurchaseHandler struct {
	Service *services.LedgerService
}

// NewPurchaseHandler cria uma nova instância do handler de compras.
func NewPurchaseHandler(s *services.LedgerService) *PurchaseHandler {
	return &PurchaseHandler{Service: s}
}

// BuyTokens executa uma compra na moeda nativa.
// POST /properties/{id}/purchase
func (h *PurchaseHandler) BuyTokens(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		TokenAmount   int64  `json:"token_amount"`
		UnitPrice     int64  `json:"unit_price"`
		PaidAmount    int64  `json:"paid_amount"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.BuyTokens(id, requestBody.TokenAmount, requestBody.UnitPrice,
		requestBody.PaidAmount, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(receipt)
}

// PrepareStablePurchase prepara a transação de pagamento no ativo estável
// para assinatura do comprador.
// POST /properties/{id}/purchase/stable/prepare
func (h *PurchaseHandler) PrepareStablePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		TokenAmount   int64  `json:"token_amount"`
		UnitPrice     int64  `json:"unit_price"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	serializedTx, err := h.Service.PrepareStablePurchase(r.Context(), id,
		requestBody.TokenAmount, requestBody.UnitPrice, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"serialized_transaction": serializedTx})
}

// CompleteStablePurchase recebe a transação assinada e executa a compra.
// POST /properties/{id}/purchase/stable/complete
func (h *PurchaseHandler) CompleteStablePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		TokenAmount       int64  `json:"token_amount"`
		UnitPrice         int64  `json:"unit_price"`
		SignedTransaction string `json:"signed_transaction"`
		CallerAccount     string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := h.Service.CompleteStablePurchase(r.Context(), id,
		requestBody.TokenAmount, requestBody.UnitPrice,
		requestBody.SignedTransaction, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(receipt)
}
