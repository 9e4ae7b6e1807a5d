package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Withdraw saca todo o saldo pendente do chamador. Ordem
// checks-effects-interactions: o saldo é zerado e commitado ANTES da
// transferência externa, de modo que um segundo saque disparado durante a
// transferência encontra saldo zero. Se a transferência falhar, a mutação
// fica commitada e o valor volta para a fila num passo de recuperação
// (decisão registrada em DESIGN.md).
//
// O saque não passa pelo gate de compliance: blacklistar uma conta não
// pode prender fundos que já são devidos a ela.
func (l *LedgerService) Withdraw(ctx context.Context, caller string) (int64, error) {
	l.mu.Lock()

	var amount int64
	var user models.User
	record := models.Withdrawal{
		ID:        uuid.New().String(),
		Account:   caller,
		Status:    models.WithdrawalProcessing,
		CreatedAt: time.Now(),
	}
	err := l.store.Transact(func(s storage.Store) error {
		var err error
		user, err = requireAccount(s, caller)
		if err != nil {
			return err
		}
		amount, err = s.GetPendingWithdrawal(caller)
		if err != nil {
			return err
		}
		if amount == 0 {
			return ErrNothingToWithdraw
		}
		// Zera antes de transferir.
		if err := s.ClearPendingWithdrawal(caller); err != nil {
			return err
		}
		record.Amount = amount
		return s.SaveWithdrawal(record)
	})
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}

	// Interação externa por último, fora da seção crítica: o ledger já
	// está commitado e um reentrante verá o saldo zerado.
	txID, transferErr := l.settlement.Transfer(ctx, user.SolanaPubKey, amount)

	l.mu.Lock()
	defer l.mu.Unlock()
	if transferErr != nil {
		record.Status = models.WithdrawalRequeued
		requeueErr := l.store.Transact(func(s storage.Store) error {
			if err := s.UpdateWithdrawal(record); err != nil {
				return err
			}
			return queueCredit(s, caller, amount)
		})
		if requeueErr != nil {
			log.WithFields(log.Fields{"account": caller, "amount": amount}).
				Errorf("Transferência falhou e o recredito também; reconciliação manual necessária: %v", requeueErr)
		}
		return 0, fmt.Errorf("falha na transferência do saque, valor recreditado na fila: %w", transferErr)
	}

	record.Status = models.WithdrawalCompleted
	record.TxID = txID
	err = l.store.Transact(func(s storage.Store) error {
		if err := s.UpdateWithdrawal(record); err != nil {
			return err
		}
		return appendEvent(s, models.EventWithdrawalCompleted, models.WithdrawalCompletedPayload{
			Account: caller,
			Amount:  amount,
		})
	})
	if err != nil {
		log.WithFields(log.Fields{"account": caller, "tx": txID}).
			Errorf("Saque pago mas falha ao registrar conclusão: %v", err)
	}
	return amount, nil
}

// GetPendingWithdrawal retorna o saldo pendente de uma conta na fila.
func (l *LedgerService) GetPendingWithdrawal(account string) (int64, error) {
	return l.store.GetPendingWithdrawal(account)
}
