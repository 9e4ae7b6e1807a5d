package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/storage"

	log "github.com/sirupsen/logrus"
)

// DistributeDividend registra uma distribuição de dividendos do imóvel.
// amountPerToken = depositedAmount / tokensSold com divisão inteira; o
// resto fica retido com o depositante (política de dust). O depósito em si
// chega junto da chamada e fica custodiado pelo sistema até as
// reivindicações.
func (l *LedgerService) DistributeDividend(propertyID, depositedAmount int64, description, caller string) (models.DividendDistribution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var dist models.DividendDistribution
	err := l.store.Transact(func(s storage.Store) error {
		p, err := requireOwnedProperty(s, propertyID, caller)
		if err != nil {
			return err
		}
		if depositedAmount <= 0 {
			return fmt.Errorf("%w: valor do depósito deve ser positivo", ErrValidation)
		}
		if p.TokensSold == 0 {
			return ErrNoTokensSold
		}
		amountPerToken := depositedAmount / p.TokensSold
		if amountPerToken == 0 {
			return ErrDividendTooSmall
		}
		// O payout usa o saldo na hora da reivindicação, que pode crescer
		// até TotalTokens depois desta distribuição; o teto garante que
		// saldo * amountPerToken nunca estoura int64.
		if amountPerToken > math.MaxInt64/p.TotalTokens {
			return fmt.Errorf("%w: valor por token excede o limite", ErrValidation)
		}

		idx, err := s.CountDividends(propertyID)
		if err != nil {
			return err
		}
		now := time.Now()
		dist = models.DividendDistribution{
			PropertyID:     propertyID,
			Idx:            idx,
			TotalAmount:    depositedAmount,
			AmountPerToken: amountPerToken,
			Description:    description,
			CreatedAt:      now,
		}
		if err := s.AppendDividend(dist); err != nil {
			return err
		}

		p.TotalDividendsDistributed += depositedAmount
		p.LastDividendAt = &now
		if err := s.UpdateProperty(p); err != nil {
			return err
		}
		return appendEvent(s, models.EventDividendDistributed, models.DividendDistributedPayload{
			PropertyID:        propertyID,
			DistributionIndex: idx,
			TotalAmount:       depositedAmount,
			AmountPerToken:    amountPerToken,
		})
	})
	if err != nil {
		return models.DividendDistribution{}, err
	}
	return dist, nil
}

// payClaim paga um valor de dividendo já marcado como reivindicado. Roda
// fora da seção crítica. Se a transferência falhar, a reivindicação
// permanece commitada e o valor vira uma entrada recuperável na fila de
// saques (decisão registrada em DESIGN.md).
func (l *LedgerService) payClaim(ctx context.Context, user models.User, amount int64) error {
	_, err := l.settlement.Transfer(ctx, user.SolanaPubKey, amount)
	if err == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	requeueErr := l.store.Transact(func(s storage.Store) error {
		return queueCredit(s, user.Address, amount)
	})
	if requeueErr != nil {
		log.WithFields(log.Fields{"account": user.Address, "amount": amount}).
			Errorf("Pagamento de dividendo falhou e o enfileiramento também; reconciliação manual necessária: %v", requeueErr)
	}
	return fmt.Errorf("falha no pagamento do dividendo, valor enfileirado para saque: %w", err)
}

// ClaimDividend reivindica uma distribuição específica. O payout usa o
// saldo ATUAL de tokens do chamador, não o saldo na época da distribuição:
// quem comprou depois ainda reivindica distribuições passadas. Marca a
// reivindicação exatamente uma vez e paga por último.
func (l *LedgerService) ClaimDividend(ctx context.Context, propertyID, idx int64, caller string) (int64, error) {
	l.mu.Lock()

	var payout int64
	var user models.User
	err := l.store.Transact(func(s storage.Store) error {
		if _, found, err := s.GetProperty(propertyID); err != nil {
			return err
		} else if !found {
			return fmt.Errorf("%w: %d", ErrPropertyNotFound, propertyID)
		}
		var err error
		user, err = requireCompliance(s, caller)
		if err != nil {
			return err
		}
		dist, found, err := s.GetDividend(propertyID, idx)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: índice %d", ErrDividendNotFound, idx)
		}
		claimed, err := s.IsDividendClaimed(propertyID, caller, idx)
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyClaimed
		}
		balance, err := s.GetTokenBalance(propertyID, caller)
		if err != nil {
			return err
		}
		if balance == 0 {
			return ErrNoTokensOwned
		}

		payout = balance * dist.AmountPerToken
		if err := s.SaveDividendClaim(models.DividendClaim{
			PropertyID: propertyID,
			Account:    caller,
			Idx:        idx,
			Amount:     payout,
			CreatedAt:  time.Now(),
		}); err != nil {
			return err
		}
		return appendEvent(s, models.EventDividendClaimed, models.DividendClaimedPayload{
			PropertyID:      propertyID,
			InvestorAccount: caller,
			Amount:          payout,
		})
	})
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}

	if err := l.payClaim(ctx, user, payout); err != nil {
		return 0, err
	}
	return payout, nil
}

// ClaimAllDividends reivindica todas as distribuições ainda não
// reivindicadas pelo chamador, usando o MESMO saldo atual para todos os
// índices (regra deliberada, não um descuido), e paga o agregado numa
// única transferência.
func (l *LedgerService) ClaimAllDividends(ctx context.Context, propertyID int64, caller string) (int64, error) {
	l.mu.Lock()

	var total int64
	var user models.User
	err := l.store.Transact(func(s storage.Store) error {
		if _, found, err := s.GetProperty(propertyID); err != nil {
			return err
		} else if !found {
			return fmt.Errorf("%w: %d", ErrPropertyNotFound, propertyID)
		}
		var err error
		user, err = requireCompliance(s, caller)
		if err != nil {
			return err
		}
		balance, err := s.GetTokenBalance(propertyID, caller)
		if err != nil {
			return err
		}
		dists, err := s.ListDividends(propertyID)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, dist := range dists {
			claimed, err := s.IsDividendClaimed(propertyID, caller, dist.Idx)
			if err != nil {
				return err
			}
			if claimed || balance == 0 {
				continue
			}
			payout := balance * dist.AmountPerToken
			if err := s.SaveDividendClaim(models.DividendClaim{
				PropertyID: propertyID,
				Account:    caller,
				Idx:        dist.Idx,
				Amount:     payout,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
			total += payout
		}
		if total == 0 {
			return ErrNoDividendsToClaim
		}
		return appendEvent(s, models.EventDividendClaimed, models.DividendClaimedPayload{
			PropertyID:      propertyID,
			InvestorAccount: caller,
			Amount:          total,
		})
	})
	l.mu.Unlock()
	if err != nil {
		return 0, err
	}

	if err := l.payClaim(ctx, user, total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListDividends lista as distribuições de um imóvel em ordem.
func (l *LedgerService) ListDividends(propertyID int64) ([]models.DividendDistribution, error) {
	return l.store.ListDividends(propertyID)
}

// GetClaimableAmount calcula quanto uma conta pode reivindicar agora no
// imóvel, com o saldo atual aplicado a todos os índices não reivindicados.
func (l *LedgerService) GetClaimableAmount(propertyID int64, account string) (int64, error) {
	balance, err := l.store.GetTokenBalance(propertyID, account)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}
	dists, err := l.store.ListDividends(propertyID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, dist := range dists {
		claimed, err := l.store.IsDividendClaimed(propertyID, account, dist.Idx)
		if err != nil {
			return 0, err
		}
		if !claimed {
			total += balance * dist.AmountPerToken
		}
	}
	return total, nil
}
