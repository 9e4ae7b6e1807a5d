package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ferreirogomes/fracimo/services"
)

// EventHandler expõe o log de eventos do core para consumidores externos
// reconstruírem o estado por replay.
type EventHandler struct {
	Service *services.LedgerService
}

// NewEventHandler cria uma nova instância do handler de eventos.
func NewEventHandler(s *services.LedgerService) *EventHandler {
	return &EventHandler{Service: s}
}

// List retorna os eventos em ordem de emissão.
// GET /events?limit=N
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limite inválido", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.Service.ListEvents(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
