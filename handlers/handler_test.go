package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ferreirogomes/fracimo/handlers"
	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/services"
	"github.com/ferreirogomes/fracimo/storage"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSettlement finge a camada de liquidação nos testes de handler.
type stubSettlement struct{}

func (stubSettlement) Transfer(ctx context.Context, toPubKey string, amount int64) (string, error) {
	return "stub-sig", nil
}

func (stubSettlement) PrepareStableTransfer(ctx context.Context, fromPubKey string, legs []services.StableLeg) (string, error) {
	return "stub-tx", nil
}

func (stubSettlement) SendStablePayment(ctx context.Context, signedTxBase64, fromPubKey string, legs []services.StableLeg) (string, error) {
	return "stub-sig", nil
}

// newTestServer monta o router com as mesmas rotas do main sobre o storage
// em memória, com um oficial de compliance já criado.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := storage.NewMemory()
	require.NoError(t, store.SaveUser(models.User{
		Address:    "officer",
		Role:       models.RoleComplianceOfficer,
		IsVerified: true,
		CreatedAt:  time.Now(),
	}))
	require.NoError(t, store.SaveUser(models.User{
		Address:      "platform",
		SolanaPubKey: "PlatformPubKey",
		Role:         models.RoleAccount,
		IsVerified:   true,
		CreatedAt:    time.Now(),
	}))

	ledger := services.NewLedgerService(store, stubSettlement{}, services.LedgerConfig{
		TokenPriceUSD:   50,
		PlatformFeeBp:   250,
		PlatformAccount: "platform",
	})

	propertyHandler := handlers.NewPropertyHandler(ledger)
	purchaseHandler := handlers.NewPurchaseHandler(ledger)
	dividendHandler := handlers.NewDividendHandler(ledger)
	withdrawalHandler := handlers.NewWithdrawalHandler(ledger)
	userHandler := handlers.NewUserHandler(ledger)
	eventHandler := handlers.NewEventHandler(ledger)

	r := chi.NewRouter()
	r.Route("/properties", func(r chi.Router) {
		r.Post("/", propertyHandler.CreateProperty)
		r.Get("/", propertyHandler.ListActive)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", propertyHandler.GetPropertyByID)
			r.Post("/deactivate", propertyHandler.DeactivatePool)
			r.Get("/investors", propertyHandler.ListInvestors)
			r.Get("/balances/{address}", propertyHandler.GetBalance)
			r.Post("/purchase", purchaseHandler.BuyTokens)
			r.Route("/dividends", func(r chi.Router) {
				r.Post("/", dividendHandler.Distribute)
				r.Get("/", dividendHandler.List)
				r.Post("/claim-all", dividendHandler.ClaimAll)
				r.Get("/claimable/{address}", dividendHandler.Claimable)
				r.Post("/{idx}/claim", dividendHandler.Claim)
			})
		})
	})
	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/", withdrawalHandler.Withdraw)
		r.Get("/pending/{address}", withdrawalHandler.Pending)
	})
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUser)
		r.Get("/{address}", userHandler.GetUserByAddress)
		r.Put("/{address}/verification", userHandler.SetVerification)
	})
	r.Get("/events", eventHandler.List)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func putJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerVerified registra a conta pela API e a verifica como oficial.
func registerVerified(t *testing.T, base, address string) {
	t.Helper()
	resp := postJSON(t, base+"/users", map[string]string{
		"address":        address,
		"name":           address,
		"solana_pub_key": address + "PubKey",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = putJSON(t, fmt.Sprintf("%s/users/%s/verification", base, address), map[string]any{
		"verified":       true,
		"caller_account": "officer",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	registerVerified(t, srv.URL, "owner")
	registerVerified(t, srv.URL, "alice")

	// Lista o imóvel: 10000 a preço 50 = 200 tokens.
	resp := postJSON(t, srv.URL+"/properties", map[string]any{
		"name":            "Edifício Aurora",
		"location":        "São Paulo, SP",
		"total_value_usd": 10000,
		"area":            320,
		"caller_account":  "owner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var property models.Property
	decode(t, resp, &property)
	assert.Equal(t, int64(200), property.TotalTokens)

	// Compra na moeda nativa: custo 1000, taxa 25, payout 975.
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/purchase", srv.URL, property.ID), map[string]any{
		"token_amount":   100,
		"unit_price":     10,
		"paid_amount":    1000,
		"caller_account": "alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var receipt models.PurchaseReceipt
	decode(t, resp, &receipt)
	assert.Equal(t, int64(25), receipt.PlatformFee)
	assert.Equal(t, int64(975), receipt.OwnerPayout)

	// Saldo e investidores aparecem nas consultas.
	resp, err := http.Get(fmt.Sprintf("%s/properties/%d/balances/alice", srv.URL, property.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var balance map[string]int64
	decode(t, resp, &balance)
	assert.Equal(t, int64(100), balance["tokens"])

	// Dono saca o payout.
	resp = postJSON(t, srv.URL+"/withdrawals", map[string]string{"caller_account": "owner"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paid map[string]int64
	decode(t, resp, &paid)
	assert.Equal(t, int64(975), paid["amount_paid"])

	// Fila zerada.
	resp, err = http.Get(srv.URL + "/withdrawals/pending/owner")
	require.NoError(t, err)
	var pending map[string]int64
	decode(t, resp, &pending)
	assert.Equal(t, int64(0), pending["pending"])
}

func TestDividendFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	registerVerified(t, srv.URL, "owner")
	registerVerified(t, srv.URL, "alice")

	resp := postJSON(t, srv.URL+"/properties", map[string]any{
		"name":            "Edifício Aurora",
		"location":        "São Paulo, SP",
		"total_value_usd": 10000,
		"area":            320,
		"caller_account":  "owner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var property models.Property
	decode(t, resp, &property)

	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/purchase", srv.URL, property.ID), map[string]any{
		"token_amount":   50,
		"unit_price":     1,
		"paid_amount":    50,
		"caller_account": "alice",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Distribui 100: 2 por token vendido.
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/dividends", srv.URL, property.ID), map[string]any{
		"amount":         100,
		"description":    "aluguel",
		"caller_account": "owner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var dist models.DividendDistribution
	decode(t, resp, &dist)
	assert.Equal(t, int64(2), dist.AmountPerToken)

	// Reivindica o índice 0: 50 * 2 = 100.
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/dividends/0/claim", srv.URL, property.ID), map[string]any{
		"caller_account": "alice",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payout map[string]int64
	decode(t, resp, &payout)
	assert.Equal(t, int64(100), payout["payout"])

	// Reivindicar de novo vira conflito.
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/dividends/0/claim", srv.URL, property.ID), map[string]any{
		"caller_account": "alice",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)
	registerVerified(t, srv.URL, "owner")

	// Conta inexistente: 404.
	resp, err := http.Get(srv.URL + "/users/fantasma")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Imóvel inexistente: 404.
	resp, err = http.Get(srv.URL + "/properties/999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Conta não verificada comprando: 403.
	resp = postJSON(t, srv.URL+"/users", map[string]string{"address": "carol"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/properties", map[string]any{
		"name":            "Edifício Aurora",
		"location":        "São Paulo, SP",
		"total_value_usd": 10000,
		"area":            320,
		"caller_account":  "owner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var property models.Property
	decode(t, resp, &property)

	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/purchase", srv.URL, property.ID), map[string]any{
		"token_amount":   10,
		"unit_price":     1,
		"paid_amount":    10,
		"caller_account": "carol",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Pagamento insuficiente: 402.
	registerVerified(t, srv.URL, "alice")
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/purchase", srv.URL, property.ID), map[string]any{
		"token_amount":   10,
		"unit_price":     1,
		"paid_amount":    5,
		"caller_account": "alice",
	})
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	resp.Body.Close()

	// Nada a sacar: 409.
	resp = postJSON(t, srv.URL+"/withdrawals", map[string]string{"caller_account": "alice"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Pool pausado: 409.
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/deactivate", srv.URL, property.ID), map[string]any{
		"caller_account": "owner",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	resp = postJSON(t, fmt.Sprintf("%s/properties/%d/purchase", srv.URL, property.ID), map[string]any{
		"token_amount":   10,
		"unit_price":     1,
		"paid_amount":    10,
		"caller_account": "alice",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestEventsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registerVerified(t, srv.URL, "owner")

	resp := postJSON(t, srv.URL+"/properties", map[string]any{
		"name":            "Edifício Aurora",
		"location":        "São Paulo, SP",
		"total_value_usd": 10000,
		"area":            320,
		"caller_account":  "owner",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/events?limit=10")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []models.Event
	decode(t, resp, &events)
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventPropertyListed, events[len(events)-1].Type)
}
