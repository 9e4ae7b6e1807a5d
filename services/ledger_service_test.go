package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/services"
	"github.com/ferreirogomes/fracimo/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSettlement é uma implementação mock de services.Settlement.
type MockSettlement struct {
	mock.Mock
}

func (m *MockSettlement) Transfer(ctx context.Context, toPubKey string, amount int64) (string, error) {
	args := m.Called(toPubKey, amount)
	return args.String(0), args.Error(1)
}

func (m *MockSettlement) PrepareStableTransfer(ctx context.Context, fromPubKey string, legs []services.StableLeg) (string, error) {
	args := m.Called(fromPubKey, legs)
	return args.String(0), args.Error(1)
}

func (m *MockSettlement) SendStablePayment(ctx context.Context, signedTxBase64, fromPubKey string, legs []services.StableLeg) (string, error) {
	args := m.Called(signedTxBase64, fromPubKey, legs)
	return args.String(0), args.Error(1)
}

const (
	ownerAccount    = "owner"
	aliceAccount    = "alice"
	bobAccount      = "bob"
	officerAccount  = "officer"
	adminAccount    = "admin"
	platformAccount = "platform"
)

// newTestLedger monta o core sobre o store em memória, com as contas de
// teste já registradas e verificadas. Preço do token: 50; taxa: 250 bp.
func newTestLedger(t *testing.T) (*services.LedgerService, *storage.Memory, *MockSettlement) {
	t.Helper()

	store := storage.NewMemory()
	settlement := new(MockSettlement)
	ledger := services.NewLedgerService(store, settlement, services.LedgerConfig{
		TokenPriceUSD:   50,
		PlatformFeeBp:   250,
		PlatformAccount: platformAccount,
	})

	seed := []models.User{
		{Address: ownerAccount, Name: "Dono", SolanaPubKey: "OwnerPubKey", Role: models.RoleAccount, IsVerified: true},
		{Address: aliceAccount, Name: "Alice", SolanaPubKey: "AlicePubKey", Role: models.RoleAccount, IsVerified: true},
		{Address: bobAccount, Name: "Bob", SolanaPubKey: "BobPubKey", Role: models.RoleAccount, IsVerified: true},
		{Address: officerAccount, Name: "Oficial", Role: models.RoleComplianceOfficer, IsVerified: true},
		{Address: adminAccount, Name: "Admin", Role: models.RoleAdmin, IsVerified: true},
		{Address: platformAccount, Name: "Plataforma", SolanaPubKey: "PlatformPubKey", Role: models.RoleAccount, IsVerified: true},
	}
	for _, u := range seed {
		u.CreatedAt = time.Now()
		require.NoError(t, store.SaveUser(u))
	}

	return ledger, store, settlement
}

// listTestProperty lista um imóvel em nome de ownerAccount.
func listTestProperty(t *testing.T, ledger *services.LedgerService, totalValueUSD int64) int64 {
	t.Helper()
	id, err := ledger.ListProperty(services.ListPropertyRequest{
		Name:             "Edifício Aurora",
		Description:      "Prédio comercial de 12 andares",
		Location:         "São Paulo, SP",
		TotalValueUSD:    totalValueUSD,
		Area:             320,
		EstimatedYieldBp: 800,
	}, ownerAccount)
	require.NoError(t, err)
	return id
}

// countEvents conta os eventos emitidos de um tipo.
func countEvents(t *testing.T, store *storage.Memory, eventType string) int {
	t.Helper()
	events, err := store.ListEvents(0)
	require.NoError(t, err)
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
