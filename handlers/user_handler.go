package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/services"

	"github.com/go-chi/chi/v5"
)

// UserHandler lida com requisições HTTP relacionadas a contas.
type UserHandler struct {
	Service *services.LedgerService
}

// NewUserHandler cria uma nova instância do handler de contas.
func NewUserHandler(s *services.LedgerService) *UserHandler {
	return &UserHandler{Service: s}
}

// CreateUser registra uma conta comum, ainda não verificada.
// POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Address      string `json:"address"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		SolanaPubKey string `json:"solana_pub_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Service.RegisterAccount(requestBody.Address, requestBody.Name,
		requestBody.Email, requestBody.SolanaPubKey)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// GetUserByAddress obtém uma conta pelo endereço.
// GET /users/{address}
func (h *UserHandler) GetUserByAddress(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetAccount(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// GetUserTokens lista as posições de tokens da conta.
// GET /users/{address}/tokens
func (h *UserHandler) GetUserTokens(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.Service.ListHoldings(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(holdings)
}

// SetVerification marca ou desmarca a conta como verificada.
// PUT /users/{address}/verification
func (h *UserHandler) SetVerification(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Verified      bool   `json:"verified"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Service.SetVerification(chi.URLParam(r, "address"),
		requestBody.Verified, requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetBlacklist adiciona ou remove a conta da blacklist.
// PUT /users/{address}/blacklist
func (h *UserHandler) SetBlacklist(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Blacklisted   bool   `json:"blacklisted"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Service.SetBlacklist(chi.URLParam(r, "address"),
		requestBody.Blacklisted, requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRole altera o papel da conta. Somente admins.
// PUT /users/{address}/role
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Role          string `json:"role"`
		CallerAccount string `json:"caller_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Service.SetRole(chi.URLParam(r, "address"),
		models.Role(requestBody.Role), requestBody.CallerAccount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
