package handlers

import (
	"errors"
	"net/http"

	"github.com/ferreirogomes/fracimo/services"
)

// writeError traduz os erros do core para códigos HTTP.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrCompliance),
		errors.Is(err, services.ErrAuthorization):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, services.ErrPoolState),
		errors.Is(err, services.ErrAlreadyClaimed),
		errors.Is(err, services.ErrNoDividendsToClaim),
		errors.Is(err, services.ErrNoTokensOwned),
		errors.Is(err, services.ErrNoTokensSold),
		errors.Is(err, services.ErrNothingToWithdraw):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
