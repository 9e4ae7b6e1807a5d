package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// queueForOwner lista um imóvel e vende tokens para encher a fila de saques
// do dono: custo 1000, payout 975, taxa 25.
func queueForOwner(t *testing.T, ledger *services.LedgerService) {
	t.Helper()
	id := listTestProperty(t, ledger, 10000)
	_, err := ledger.BuyTokens(id, 100, 10, 1000, aliceAccount)
	require.NoError(t, err)
}

func TestWithdrawPaysOutPendingBalance(t *testing.T) {
	ledger, store, settlement := newTestLedger(t)
	queueForOwner(t, ledger)

	settlement.On("Transfer", "OwnerPubKey", int64(975)).Return("sig", nil).Once()

	amount, err := ledger.Withdraw(context.Background(), ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(975), amount)
	settlement.AssertExpectations(t)

	pending, err := ledger.GetPendingWithdrawal(ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
	assert.Equal(t, 1, countEvents(t, store, models.EventWithdrawalCompleted))

	// Segundo saque não tem o que sacar.
	_, err = ledger.Withdraw(context.Background(), ownerAccount)
	assert.ErrorIs(t, err, services.ErrNothingToWithdraw)
}

func TestWithdrawDuringTransferSeesZeroBalance(t *testing.T) {
	ledger, _, settlement := newTestLedger(t)
	queueForOwner(t, ledger)

	// Saque disparado no meio da transferência externa: o saldo já foi
	// zerado e commitado, então a segunda chamada não saca nada.
	var reentrantErr error
	settlement.On("Transfer", "OwnerPubKey", int64(975)).
		Run(func(args mock.Arguments) {
			_, reentrantErr = ledger.Withdraw(context.Background(), ownerAccount)
		}).
		Return("sig", nil).Once()

	amount, err := ledger.Withdraw(context.Background(), ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(975), amount)
	assert.ErrorIs(t, reentrantErr, services.ErrNothingToWithdraw)
	settlement.AssertExpectations(t)
}

func TestWithdrawTransferFailureRequeues(t *testing.T) {
	ledger, _, settlement := newTestLedger(t)
	queueForOwner(t, ledger)

	settlement.On("Transfer", "OwnerPubKey", int64(975)).
		Return("", errors.New("rpc indisponível")).Once()

	_, err := ledger.Withdraw(context.Background(), ownerAccount)
	require.Error(t, err)

	// O valor voltou para a fila e um novo saque o recupera.
	pending, err := ledger.GetPendingWithdrawal(ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(975), pending)

	settlement.On("Transfer", "OwnerPubKey", int64(975)).Return("sig", nil).Once()
	amount, err := ledger.Withdraw(context.Background(), ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(975), amount)
	settlement.AssertExpectations(t)
}

func TestWithdrawIgnoresBlacklist(t *testing.T) {
	ledger, _, settlement := newTestLedger(t)
	queueForOwner(t, ledger)

	// Blacklistar o dono não prende os fundos já devidos a ele.
	require.NoError(t, ledger.SetBlacklist(ownerAccount, true, officerAccount))

	settlement.On("Transfer", "OwnerPubKey", int64(975)).Return("sig", nil).Once()
	amount, err := ledger.Withdraw(context.Background(), ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(975), amount)
}

func TestWithdrawUnknownAccount(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	_, err := ledger.Withdraw(context.Background(), "fantasma")
	assert.ErrorIs(t, err, services.ErrAccountNotFound)
}
