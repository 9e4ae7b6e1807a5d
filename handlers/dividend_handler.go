package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ferreirogomes/fracimo/services"

	"github.com/go-chi/chi/v5"
)

// DividendHandler lida com distribuições e reivindicações de dividendos.
type DividendHandler struct {
	Service *services.LedgerService
}

// NewDividendHandler cria uma nova instância do handler de dividendos.
func NewDividendHandler(s *services.LedgerService) *DividendHandler {
	return &DividendHandler{Service: s}
}

// Distribute registra uma distribuição de dividendos do imóvel.
// POST /properties/{id}/dividends
func (h *DividendHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		Amount        int64  `json:"amount"`
		Description   string `json:"description"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dist, err := h.Service.DistributeDividend(id, requestBody.Amount,
		requestBody.Description, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dist)
}

// List lista as distribuições do imóvel.
// GET /properties/{id}/dividends
func (h *DividendHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	dists, err := h.Service.ListDividends(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dists)
}

// Claim reivindica uma distribuição específica.
// POST /properties/{id}/dividends/{idx}/claim
func (h *DividendHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	idx, err := strconv.ParseInt(chi.URLParam(r, "idx"), 10, 64)
	if err != nil {
		http.Error(w, "índice de distribuição inválido", http.StatusBadRequest)
		return
	}
	var requestBody struct {
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payout, err := h.Service.ClaimDividend(r.Context(), id, idx, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"payout": payout})
}

// ClaimAll reivindica todas as distribuições pendentes do chamador.
// POST /properties/{id}/dividends/claim-all
func (h *DividendHandler) ClaimAll(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payout, err := h.Service.ClaimAllDividends(r.Context(), id, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"payout": payout})
}

// Claimable calcula quanto uma conta pode reivindicar agora.
// GET /properties/{id}/dividends/claimable/{address}
func (h *DividendHandler) Claimable(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	amount, err := h.Service.GetClaimableAmount(id, chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"claimable": amount})
}
