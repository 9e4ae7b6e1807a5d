package services

import (
	"context"
	"fmt"
	"math"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/storage"

	log "github.com/sirupsen/logrus"
)

// validatePurchase aplica as pré-condições de compra, na ordem fixa em que
// a primeira falha vence: imóvel existe, comprador passa no gate, pool
// ativo, quantidade positiva, oferta suficiente, preço positivo.
func (l *LedgerService) validatePurchase(s storage.Store, propertyID, tokenAmount, unitPrice int64, caller string) (models.Property, error) {
	p, found, err := s.GetProperty(propertyID)
	if err != nil {
		return models.Property{}, err
	}
	if !found {
		return models.Property{}, fmt.Errorf("%w: %d", ErrPropertyNotFound, propertyID)
	}
	if _, err := requireCompliance(s, caller); err != nil {
		return models.Property{}, err
	}
	if !p.IsActive {
		return models.Property{}, ErrPoolInactive
	}
	if tokenAmount <= 0 {
		return models.Property{}, fmt.Errorf("%w: quantidade de tokens deve ser positiva", ErrValidation)
	}
	if p.TokensSold+tokenAmount > p.TotalTokens {
		return models.Property{}, fmt.Errorf("%w: restam %d tokens", ErrPoolInsufficientSupply, p.TokensRemaining())
	}
	if unitPrice <= 0 {
		return models.Property{}, fmt.Errorf("%w: preço unitário deve ser positivo", ErrValidation)
	}
	// Limita o custo total a MaxInt64/10000 para que nem o custo nem a
	// multiplicação da taxa (até 10000 bp) estourem int64. Sem este teto um
	// preço enorme viraria custo negativo e fabricaria fundos no reembolso.
	if unitPrice > math.MaxInt64/10000/tokenAmount {
		return models.Property{}, fmt.Errorf("%w: custo total da compra excede o limite", ErrValidation)
	}
	return p, nil
}

// settlePurchase aplica os efeitos contábeis de uma compra já validada:
// crédito de tokens, índice de investidores, tokensSold e detecção de
// esgotamento do pool. A divisão da taxa arredonda para baixo; o resto
// fica com o payout do dono, de propósito.
func (l *LedgerService) settlePurchase(s storage.Store, p models.Property, tokenAmount, totalCost int64, caller string, kind models.SettlementKind) (models.PurchaseReceipt, error) {
	platformFee := totalCost * l.cfg.PlatformFeeBp / 10000
	ownerPayout := totalCost - platformFee

	if err := s.AddTokenBalance(p.ID, caller, tokenAmount); err != nil {
		return models.PurchaseReceipt{}, err
	}
	if err := s.AppendInvestor(p.ID, caller); err != nil {
		return models.PurchaseReceipt{}, err
	}

	p.TokensSold += tokenAmount
	p.TotalRaised += totalCost
	completed := p.TokensSold == p.TotalTokens
	if completed {
		p.IsActive = false
	}
	if err := s.UpdateProperty(p); err != nil {
		return models.PurchaseReceipt{}, err
	}

	if err := appendEvent(s, models.EventTokensPurchased, models.TokensPurchasedPayload{
		PropertyID:     p.ID,
		BuyerAccount:   caller,
		TokenAmount:    tokenAmount,
		TotalPaid:      totalCost,
		SettlementKind: kind,
	}); err != nil {
		return models.PurchaseReceipt{}, err
	}
	if completed {
		if err := appendEvent(s, models.EventPoolCompleted, models.PoolCompletedPayload{
			PropertyID:  p.ID,
			TotalRaised: p.TotalRaised,
		}); err != nil {
			return models.PurchaseReceipt{}, err
		}
	}

	return models.PurchaseReceipt{
		PropertyID:    p.ID,
		Buyer:         caller,
		TokenAmount:   tokenAmount,
		TotalCost:     totalCost,
		PlatformFee:   platformFee,
		OwnerPayout:   ownerPayout,
		Settlement:    kind,
		PoolCompleted: completed,
	}, nil
}

// queueCredit credita um valor na fila de saques de uma conta e emite
// WithdrawalQueued.
func queueCredit(s storage.Store, account string, amount int64) error {
	if err := s.AddPendingWithdrawal(account, amount); err != nil {
		return err
	}
	return appendEvent(s, models.EventWithdrawalQueued, models.WithdrawalQueuedPayload{
		Account: account,
		Amount:  amount,
	})
}

// BuyTokens executa uma compra na moeda nativa. O valor pago chega junto da
// chamada (camada de transporte); o core só registra obrigações: payout do
// dono e taxa da plataforma entram na fila de saques, excesso pago vira
// reembolso na fila do próprio comprador. Nenhum fundo se move aqui.
func (l *LedgerService) BuyTokens(propertyID, tokenAmount, unitPrice, paidAmount int64, caller string) (models.PurchaseReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var receipt models.PurchaseReceipt
	err := l.store.Transact(func(s storage.Store) error {
		p, err := l.validatePurchase(s, propertyID, tokenAmount, unitPrice, caller)
		if err != nil {
			return err
		}
		totalCost := unitPrice * tokenAmount
		if paidAmount < totalCost {
			return fmt.Errorf("%w: custo %d, pago %d", ErrInsufficientFunds, totalCost, paidAmount)
		}

		receipt, err = l.settlePurchase(s, p, tokenAmount, totalCost, caller, models.SettlementNative)
		if err != nil {
			return err
		}

		if err := queueCredit(s, p.OwnerAccount, receipt.OwnerPayout); err != nil {
			return err
		}
		if err := queueCredit(s, l.cfg.PlatformAccount, receipt.PlatformFee); err != nil {
			return err
		}
		if excess := paidAmount - totalCost; excess > 0 {
			receipt.Refund = excess
			if err := queueCredit(s, caller, excess); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.PurchaseReceipt{}, err
	}
	return receipt, nil
}

// stableLegs resolve as pernas do pagamento no ativo estável: payout
// líquido para o dono e taxa para a plataforma.
func (l *LedgerService) stableLegs(s storage.Store, p models.Property, totalCost int64) ([]StableLeg, error) {
	owner, err := requireAccount(s, p.OwnerAccount)
	if err != nil {
		return nil, err
	}
	platform, err := requireAccount(s, l.cfg.PlatformAccount)
	if err != nil {
		return nil, err
	}
	platformFee := totalCost * l.cfg.PlatformFeeBp / 10000
	return []StableLeg{
		{ToPubKey: owner.SolanaPubKey, Amount: totalCost - platformFee},
		{ToPubKey: platform.SolanaPubKey, Amount: platformFee},
	}, nil
}

// PrepareStablePurchase valida a compra e constrói a transação de pagamento
// no ativo estável para assinatura do comprador: uma perna para o dono
// (payout líquido) e uma para a plataforma (taxa). Não altera estado.
func (l *LedgerService) PrepareStablePurchase(ctx context.Context, propertyID, tokenAmount, unitPrice int64, caller string) (string, error) {
	l.mu.Lock()
	p, err := l.validatePurchase(l.store, propertyID, tokenAmount, unitPrice, caller)
	var buyer models.User
	if err == nil {
		buyer, err = requireAccount(l.store, caller)
	}
	if err == nil && buyer.SolanaPubKey == "" {
		err = fmt.Errorf("%w: comprador sem chave pública Solana", ErrValidation)
	}
	var legs []StableLeg
	if err == nil {
		legs, err = l.stableLegs(l.store, p, unitPrice*tokenAmount)
	}
	l.mu.Unlock()
	if err != nil {
		return "", err
	}
	return l.settlement.PrepareStableTransfer(ctx, buyer.SolanaPubKey, legs)
}

// CompleteStablePurchase executa a compra no ativo estável. O pagamento é a
// perna de entrada, então é cobrado antes do commit contábil: com o mutex
// seguro durante a chamada inteira, nada muda entre a validação, a cobrança
// e o commit. As pernas esperadas são recomputadas aqui e conferidas contra
// a transação assinada antes do envio: os parâmetros vêm do chamador, então
// a transação não pode ser aceita às cegas. Um commit que falhe depois do
// pagamento é logado para reconciliação manual.
func (l *LedgerService) CompleteStablePurchase(ctx context.Context, propertyID, tokenAmount, unitPrice int64, signedTxBase64, caller string) (models.PurchaseReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.validatePurchase(l.store, propertyID, tokenAmount, unitPrice, caller)
	if err != nil {
		return models.PurchaseReceipt{}, err
	}
	buyer, err := requireAccount(l.store, caller)
	if err != nil {
		return models.PurchaseReceipt{}, err
	}
	totalCost := unitPrice * tokenAmount
	legs, err := l.stableLegs(l.store, p, totalCost)
	if err != nil {
		return models.PurchaseReceipt{}, err
	}

	txID, err := l.settlement.SendStablePayment(ctx, signedTxBase64, buyer.SolanaPubKey, legs)
	if err != nil {
		return models.PurchaseReceipt{}, fmt.Errorf("falha na cobrança do ativo estável: %w", err)
	}

	var receipt models.PurchaseReceipt
	err = l.store.Transact(func(s storage.Store) error {
		// Revalida dentro da transação; sob o mutex nada pode ter mudado.
		p, err = l.validatePurchase(s, propertyID, tokenAmount, unitPrice, caller)
		if err != nil {
			return err
		}
		receipt, err = l.settlePurchase(s, p, tokenAmount, totalCost, caller, models.SettlementStable)
		return err
	})
	if err != nil {
		log.WithFields(log.Fields{"tx": txID, "property": propertyID, "buyer": caller}).
			Errorf("Pagamento estável cobrado mas o registro contábil falhou; reconciliação manual necessária: %v", err)
		return models.PurchaseReceipt{}, fmt.Errorf("pagamento %s cobrado, mas falha ao registrar compra: %w", txID, err)
	}
	return receipt, nil
}
