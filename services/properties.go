package services

import (
	"fmt"
	"time"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/storage"
)

// ListPropertyRequest reúne os dados de listagem de um imóvel.
type ListPropertyRequest struct {
	Name             string
	Description      string
	Location         string
	ImageRef         string
	TotalValueUSD    int64
	Area             int64
	EstimatedYieldBp int64
}

// ListProperty lista um novo imóvel: cria a escritura em nome do chamador e
// abre o pool de tokens. totalTokens = totalValueUSD / TokenPriceUSD com
// divisão inteira; o resto do valor é invendável (política de dust).
func (l *LedgerService) ListProperty(req ListPropertyRequest, caller string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var id int64
	err := l.store.Transact(func(s storage.Store) error {
		if _, err := requireCompliance(s, caller); err != nil {
			return err
		}
		if req.Name == "" {
			return fmt.Errorf("%w: nome do imóvel é obrigatório", ErrValidation)
		}
		if req.TotalValueUSD <= 0 {
			return fmt.Errorf("%w: valor total deve ser positivo", ErrValidation)
		}
		if req.Area <= 0 {
			return fmt.Errorf("%w: área deve ser positiva", ErrValidation)
		}
		if req.EstimatedYieldBp < 0 || req.EstimatedYieldBp > 10000 {
			return fmt.Errorf("%w: yield estimado fora de 0-10000 bp", ErrValidation)
		}

		totalTokens := req.TotalValueUSD / l.cfg.TokenPriceUSD
		if totalTokens == 0 {
			return ErrValueTooSmall
		}

		p := models.Property{
			Name:             req.Name,
			Description:      req.Description,
			Location:         req.Location,
			ImageRef:         req.ImageRef,
			TotalValueUSD:    req.TotalValueUSD,
			Area:             req.Area,
			OwnerAccount:     caller,
			TotalTokens:      totalTokens,
			IsActive:         true,
			EstimatedYieldBp: req.EstimatedYieldBp,
			CreatedAt:        time.Now(),
		}
		var err error
		id, err = s.CreateProperty(p)
		if err != nil {
			return err
		}
		return appendEvent(s, models.EventPropertyListed, models.PropertyListedPayload{
			PropertyID:    id,
			Name:          p.Name,
			TotalValueUSD: p.TotalValueUSD,
			TotalTokens:   p.TotalTokens,
			OwnerAccount:  caller,
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// requireOwnedProperty busca o imóvel e exige que caller seja o dono atual
// da escritura, já passando pelo gate de compliance.
func requireOwnedProperty(s storage.Store, propertyID int64, caller string) (models.Property, error) {
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
	if p.OwnerAccount != caller {
		return models.Property{}, fmt.Errorf("%w: apenas o dono da escritura", ErrAuthorization)
	}
	return p, nil
}

// DeactivatePool pausa a venda de tokens do imóvel.
func (l *LedgerService) DeactivatePool(propertyID int64, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		p, err := requireOwnedProperty(s, propertyID, caller)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return fmt.Errorf("%w: pool já está inativo", ErrPoolState)
		}
		p.IsActive = false
		return s.UpdateProperty(p)
	})
}

// ReactivatePool reabre a venda. Um pool esgotado jamais reabre.
func (l *LedgerService) ReactivatePool(propertyID int64, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		p, err := requireOwnedProperty(s, propertyID, caller)
		if err != nil {
			return err
		}
		if p.IsActive {
			return fmt.Errorf("%w: pool já está ativo", ErrPoolState)
		}
		if p.TokensSold >= p.TotalTokens {
			return ErrPoolExhausted
		}
		p.IsActive = true
		return s.UpdateProperty(p)
	})
}

// UpdateEstimatedYield atualiza o yield estimado do imóvel, em basis points.
func (l *LedgerService) UpdateEstimatedYield(propertyID, newYieldBp int64, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		p, err := requireOwnedProperty(s, propertyID, caller)
		if err != nil {
			return err
		}
		if newYieldBp < 0 || newYieldBp > 10000 {
			return fmt.Errorf("%w: yield estimado fora de 0-10000 bp", ErrValidation)
		}
		p.EstimatedYieldBp = newYieldBp
		return s.UpdateProperty(p)
	})
}

// TransferDeed transfere a escritura para outro dono. A transferência da
// escritura é independente do fluxo de compra de tokens: os saldos dos
// investidores não mudam, apenas quem recebe os próximos payouts.
func (l *LedgerService) TransferDeed(propertyID int64, newOwner, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		p, err := requireOwnedProperty(s, propertyID, caller)
		if err != nil {
			return err
		}
		if _, err := requireCompliance(s, newOwner); err != nil {
			return err
		}
		if newOwner == caller {
			return fmt.Errorf("%w: novo dono igual ao atual", ErrValidation)
		}
		p.OwnerAccount = newOwner
		if err := s.UpdateProperty(p); err != nil {
			return err
		}
		return appendEvent(s, models.EventDeedTransferred, models.DeedTransferredPayload{
			PropertyID:  propertyID,
			FromAccount: caller,
			ToAccount:   newOwner,
		})
	})
}

// GetProperty busca um imóvel pelo id.
func (l *LedgerService) GetProperty(propertyID int64) (models.Property, error) {
	p, found, err := l.store.GetProperty(propertyID)
	if err != nil {
		return models.Property{}, err
	}
	if !found {
		return models.Property{}, fmt.Errorf("%w: %d", ErrPropertyNotFound, propertyID)
	}
	return p, nil
}

// ListActiveProperties lista os imóveis com pool ativo.
func (l *LedgerService) ListActiveProperties() ([]models.Property, error) {
	return l.store.ListActiveProperties()
}

// ListPropertiesByOwner lista os imóveis de um dono.
func (l *LedgerService) ListPropertiesByOwner(owner string) ([]models.Property, error) {
	return l.store.ListPropertiesByOwner(owner)
}

// GetTokenBalance retorna o saldo de tokens de uma conta num imóvel
// (zero se nunca comprou).
func (l *LedgerService) GetTokenBalance(propertyID int64, account string) (int64, error) {
	return l.store.GetTokenBalance(propertyID, account)
}

// ListInvestors enumera os investidores de um imóvel em ordem de primeira
// compra, sem duplicatas.
func (l *LedgerService) ListInvestors(propertyID int64) ([]string, error) {
	return l.store.ListInvestors(propertyID)
}

// ListHoldings lista as posições de tokens de uma conta em todos os imóveis.
func (l *LedgerService) ListHoldings(account string) ([]models.TokenBalance, error) {
	return l.store.ListHoldings(account)
}
