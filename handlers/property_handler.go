package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ferreirogomes/fracimo/services"

	"github.com/go-chi/chi/v5"
)

// PropertyHandler lida com requisições HTTP relacionadas a imóveis.
type PropertyHandler struct {
	Service *services.LedgerService
}

// NewPropertyHandler cria uma nova instância do handler de imóveis.
func NewPropertyHandler(s *services.LedgerService) *PropertyHandler {
	return &PropertyHandler{Service: s}
}

// propertyID extrai o id do imóvel da URL.
func propertyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "ID do imóvel inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// CreateProperty lista um novo imóvel.
// POST /properties
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		Location         string `json:"location"`
		ImageRef         string `json:"image_ref"`
		TotalValueUSD    int64  `json:"total_value_usd"`
		Area             int64  `json:"area"`
		EstimatedYieldBp int64  `json:"estimated_yield_bp"`
		CallerAccount    string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Service.ListProperty(services.ListPropertyRequest{
		Name:             requestBody.Name,
		Description:      requestBody.Description,
		Location:         requestBody.Location,
		ImageRef:         requestBody.ImageRef,
		TotalValueUSD:    requestBody.TotalValueUSD,
		Area:             requestBody.Area,
		EstimatedYieldBp: requestBody.EstimatedYieldBp,
	}, requestBody.CallerAccount)
	if err != nil {
		writeError(w, err)
		return
	}

	property, err := h.Service.GetProperty(id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(property)
}

// GetPropertyByID obtém um imóvel pelo ID.
// GET /properties/{id}
func (h *PropertyHandler) GetPropertyByID(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	property, err := h.Service.GetProperty(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(property)
}

// ListActive lista os imóveis com pool ativo.
// GET /properties
func (h *PropertyHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Service.ListActiveProperties()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(properties)
}

// ListByOwner lista os imóveis de um dono.
// GET /properties/by-owner/{address}
func (h *PropertyHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Service.ListPropertiesByOwner(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(properties)
}

// DeactivatePool pausa a venda de tokens.
// POST /properties/{id}/deactivate
func (h *PropertyHandler) DeactivatePool(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Service.DeactivatePool(id, requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReactivatePool reabre a venda de tokens.
// POST /properties/{id}/reactivate
func (h *PropertyHandler) ReactivatePool(w http.ResponseWriter, r *http.Request) {
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
	if err := h.Service.ReactivatePool(id, requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateYield atualiza o yield estimado.
// PUT /properties/{id}/yield
func (h *PropertyHandler) UpdateYield(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		NewYieldBp    int64  `json:"new_yield_bp"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Service.UpdateEstimatedYield(id, requestBody.NewYieldBp, requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TransferDeed transfere a escritura para outro dono.
// POST /properties/{id}/transfer-deed
func (h *PropertyHandler) TransferDeed(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		NewOwner      string `json:"new_owner"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Service.TransferDeed(id, requestBody.NewOwner, requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInvestors enumera os investidores do imóvel em ordem de primeira compra.
// GET /properties/{id}/investors
func (h *PropertyHandler) ListInvestors(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	investors, err := h.Service.ListInvestors(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(investors)
}

// GetBalance retorna o saldo de tokens de uma conta no imóvel.
// GET /properties/{id}/balances/{address}
func (h *PropertyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	balance, err := h.Service.GetTokenBalance(id, chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"tokens": balance})
}
