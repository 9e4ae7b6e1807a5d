package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/storage"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LedgerConfig são os parâmetros econômicos fixos da plataforma.
type LedgerConfig struct {
	// TokenPriceUSD é o preço fixo de um token, em unidades inteiras de
	// dólar. totalTokens de um imóvel = totalValueUSD / TokenPriceUSD
	// (divisão inteira; o resto é dust invendável, de propósito).
	TokenPriceUSD int64
	// PlatformFeeBp é a taxa da plataforma em basis points (10000 = 100%).
	PlatformFeeBp int64
	// PlatformAccount recebe as taxas da plataforma.
	PlatformAccount string
}

// LedgerService é o core contábil: registro de imóveis, ledger de tokens,
// motor de compra, fila de saques e motor de dividendos.
//
// Um único mutex serializa toda operação mutante do início ao fim, como o
// log de transações serializado do modelo de execução original. As
// invariantes (conservação de tokens, reivindicação única, saque único) só
// valem sob serialização. Transferências externas de fundos acontecem
// estritamente depois do commit das mutações, fora da seção crítica.
type LedgerService struct {
	mu         sync.Mutex
	store      storage.Store
	settlement Settlement
	cfg        LedgerConfig
}

// NewLedgerService cria o core contábil.
func NewLedgerService(store storage.Store, settlement Settlement, cfg LedgerConfig) *LedgerService {
	return &LedgerService{store: store, settlement: settlement, cfg: cfg}
}

// appendEvent serializa o payload e grava o evento dentro da transação
// corrente, além de logá-lo com campos estruturados.
func appendEvent(s storage.Store, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("falha ao serializar payload do evento %s: %w", eventType, err)
	}
	e := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now(),
	}
	if err := s.AppendEvent(e); err != nil {
		return err
	}
	log.WithFields(log.Fields{"event": eventType, "payload": string(raw)}).Info("Evento emitido.")
	return nil
}

// requireAccount busca a conta ou falha com ErrAccountNotFound.
func requireAccount(s storage.Store, address string) (models.User, error) {
	u, found, err := s.GetUser(address)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	return u, nil
}

// requireCompliance aplica o gate de compliance: a conta precisa existir,
// estar verificada e fora da blacklist.
func requireCompliance(s storage.Store, address string) (models.User, error) {
	u, err := requireAccount(s, address)
	if err != nil {
		return models.User{}, err
	}
	if !u.IsVerified || u.IsBlacklisted {
		return models.User{}, fmt.Errorf("%w: %s", ErrCompliance, address)
	}
	return u, nil
}

// RegisterAccount cria uma conta comum, não verificada.
func (l *LedgerService) RegisterAccount(address, name, email, solanaPubKey string) (models.User, error) {
	if address == "" {
		return models.User{}, fmt.Errorf("%w: endereço da conta é obrigatório", ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	user := models.User{
		Address:      address,
		Name:         name,
		Email:        email,
		SolanaPubKey: solanaPubKey,
		Role:         models.RoleAccount,
		CreatedAt:    time.Now(),
	}
	err := l.store.Transact(func(s storage.Store) error {
		if _, found, err := s.GetUser(address); err != nil {
			return err
		} else if found {
			return fmt.Errorf("%w: conta %s já registrada", ErrValidation, address)
		}
		return s.SaveUser(user)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SetRole altera o papel de uma conta. Somente admins.
func (l *LedgerService) SetRole(target string, role models.Role, caller string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: papel desconhecido %q", ErrValidation, role)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		actor, err := requireAccount(s, caller)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleAdmin {
			return fmt.Errorf("%w: apenas admin altera papéis", ErrAuthorization)
		}
		u, err := requireAccount(s, target)
		if err != nil {
			return err
		}
		u.Role = role
		return s.SaveUser(u)
	})
}

// SetVerification marca ou desmarca uma conta como verificada.
// Restrito a oficiais de compliance e admins.
func (l *LedgerService) SetVerification(target string, verified bool, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		actor, err := requireAccount(s, caller)
		if err != nil {
			return err
		}
		if !actor.Role.CanManageCompliance() {
			return fmt.Errorf("%w: papel %s não gerencia compliance", ErrAuthorization, actor.Role)
		}
		u, err := requireAccount(s, target)
		if err != nil {
			return err
		}
		u.IsVerified = verified
		return s.SaveUser(u)
	})
}

// SetBlacklist adiciona ou remove uma conta da blacklist.
// Restrito a oficiais de compliance e admins.
func (l *LedgerService) SetBlacklist(target string, blacklisted bool, caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.store.Transact(func(s storage.Store) error {
		actor, err := requireAccount(s, caller)
		if err != nil {
			return err
		}
		if !actor.Role.CanManageCompliance() {
			return fmt.Errorf("%w: papel %s não gerencia compliance", ErrAuthorization, actor.Role)
		}
		u, err := requireAccount(s, target)
		if err != nil {
			return err
		}
		u.IsBlacklisted = blacklisted
		return s.SaveUser(u)
	})
}

// GetAccount busca uma conta pelo endereço.
func (l *LedgerService) GetAccount(address string) (models.User, error) {
	return requireAccount(l.store, address)
}

// ListEvents retorna os últimos eventos emitidos, em ordem.
func (l *LedgerService) ListEvents(limit int) ([]models.Event, error) {
	return l.store.ListEvents(limit)
}
