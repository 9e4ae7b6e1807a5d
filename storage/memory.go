package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/ferreirogomes/fracimo/models"
)

// Memory é uma implementação de Store inteiramente em memória, usada nos
// testes de unidade e no modo de desenvolvimento (database.driver=memory).
type Memory struct {
	mu sync.RWMutex

	users        map[string]models.User
	properties   map[int64]models.Property
	nextProperty int64

	balances     map[int64]map[string]models.TokenBalance
	investorSeen map[int64]map[string]bool
	investors    map[int64][]string

	pending     map[string]int64
	withdrawals map[string]models.Withdrawal

	dividends map[int64][]models.DividendDistribution
	claims    map[string]models.DividendClaim

	events   []models.Event
	eventSeq int64
}

// NewMemory cria um store vazio.
func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]models.User),
		properties:   make(map[int64]models.Property),
		nextProperty: 1,
		balances:     make(map[int64]map[string]models.TokenBalance),
		investorSeen: make(map[int64]map[string]bool),
		investors:    make(map[int64][]string),
		pending:      make(map[string]int64),
		withdrawals:  make(map[string]models.Withdrawal),
		dividends:    make(map[int64][]models.DividendDistribution),
		claims:       make(map[string]models.DividendClaim),
	}
}

func claimKey(propertyID int64, account string, idx int64) string {
	return fmt.Sprintf("%d:%s:%d", propertyID, account, idx)
}

// snapshot copia todo o estado para permitir rollback em Transact.
func (m *Memory) snapshot() *Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := NewMemory()
	s.nextProperty = m.nextProperty
	s.eventSeq = m.eventSeq
	for k, v := range m.users {
		s.users[k] = v
	}
	for k, v := range m.properties {
		s.properties[k] = v
	}
	for pid, bals := range m.balances {
		cp := make(map[string]models.TokenBalance, len(bals))
		for k, v := range bals {
			cp[k] = v
		}
		s.balances[pid] = cp
	}
	for pid, seen := range m.investorSeen {
		cp := make(map[string]bool, len(seen))
		for k, v := range seen {
			cp[k] = v
		}
		s.investorSeen[pid] = cp
	}
	for pid, list := range m.investors {
		s.investors[pid] = append([]string(nil), list...)
	}
	for k, v := range m.pending {
		s.pending[k] = v
	}
	for k, v := range m.withdrawals {
		s.withdrawals[k] = v
	}
	for pid, list := range m.dividends {
		s.dividends[pid] = append([]models.DividendDistribution(nil), list...)
	}
	for k, v := range m.claims {
		s.claims[k] = v
	}
	s.events = append([]models.Event(nil), m.events...)
	return s
}

func (m *Memory) restore(s *Memory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = s.users
	m.properties = s.properties
	m.nextProperty = s.nextProperty
	m.balances = s.balances
	m.investorSeen = s.investorSeen
	m.investors = s.investors
	m.pending = s.pending
	m.withdrawals = s.withdrawals
	m.dividends = s.dividends
	m.claims = s.claims
	m.events = s.events
	m.eventSeq = s.eventSeq
}

// Transact roda fn e, em caso de erro, restaura o estado anterior.
// A serialização entre operações concorrentes é responsabilidade do
// chamador (o core segura um mutex global durante toda a operação).
func (m *Memory) Transact(fn func(Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *Memory) SaveUser(user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Address] = user
	return nil
}

func (m *Memory) GetUser(address string) (models.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[address]
	return u, ok, nil
}

func (m *Memory) CreateProperty(p models.Property) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextProperty
	m.nextProperty++
	m.properties[p.ID] = p
	return p.ID, nil
}

func (m *Memory) UpdateProperty(p models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.properties[p.ID]; !ok {
		return fmt.Errorf("imóvel %d não existe", p.ID)
	}
	m.properties[p.ID] = p
	return nil
}

func (m *Memory) GetProperty(id int64) (models.Property, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.properties[id]
	return p, ok, nil
}

func (m *Memory) ListActiveProperties() ([]models.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Property
	for id := int64(1); id < m.nextProperty; id++ {
		if p, ok := m.properties[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) ListPropertiesByOwner(owner string) ([]models.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Property
	for id := int64(1); id < m.nextProperty; id++ {
		if p, ok := m.properties[id]; ok && p.OwnerAccount == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Memory) GetTokenBalance(propertyID int64, account string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bals, ok := m.balances[propertyID]; ok {
		return bals[account].Tokens, nil
	}
	return 0, nil
}

func (m *Memory) AddTokenBalance(propertyID int64, account string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bals, ok := m.balances[propertyID]
	if !ok {
		bals = make(map[string]models.TokenBalance)
		m.balances[propertyID] = bals
	}
	b, ok := bals[account]
	if !ok {
		b = models.TokenBalance{PropertyID: propertyID, Account: account, CreatedAt: time.Now()}
	}
	b.Tokens += delta
	bals[account] = b
	return nil
}

func (m *Memory) HasInvestor(propertyID int64, account string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.investorSeen[propertyID][account], nil
}

func (m *Memory) AppendInvestor(propertyID int64, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen, ok := m.investorSeen[propertyID]
	if !ok {
		seen = make(map[string]bool)
		m.investorSeen[propertyID] = seen
	}
	if seen[account] {
		return nil
	}
	seen[account] = true
	m.investors[propertyID] = append(m.investors[propertyID], account)
	return nil
}

func (m *Memory) ListInvestors(propertyID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.investors[propertyID]...), nil
}

func (m *Memory) ListHoldings(account string) ([]models.TokenBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.TokenBalance
	for id := int64(1); id < m.nextProperty; id++ {
		if b, ok := m.balances[id][account]; ok && b.Tokens > 0 {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Memory) GetPendingWithdrawal(account string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending[account], nil
}

func (m *Memory) AddPendingWithdrawal(account string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[account] += delta
	return nil
}

func (m *Memory) ClearPendingWithdrawal(account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[account] = 0
	return nil
}

func (m *Memory) SaveWithdrawal(w models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawals[w.ID] = w
	return nil
}

func (m *Memory) UpdateWithdrawal(w models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.withdrawals[w.ID]; !ok {
		return fmt.Errorf("saque %s não existe", w.ID)
	}
	m.withdrawals[w.ID] = w
	return nil
}

func (m *Memory) AppendDividend(d models.DividendDistribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.Idx != int64(len(m.dividends[d.PropertyID])) {
		return fmt.Errorf("índice de dividendo fora de sequência: %d", d.Idx)
	}
	m.dividends[d.PropertyID] = append(m.dividends[d.PropertyID], d)
	return nil
}

func (m *Memory) GetDividend(propertyID, idx int64) (models.DividendDistribution, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.dividends[propertyID]
	if idx < 0 || idx >= int64(len(list)) {
		return models.DividendDistribution{}, false, nil
	}
	return list[idx], true, nil
}

func (m *Memory) ListDividends(propertyID int64) ([]models.DividendDistribution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.DividendDistribution(nil), m.dividends[propertyID]...), nil
}

func (m *Memory) CountDividends(propertyID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.dividends[propertyID])), nil
}

func (m *Memory) IsDividendClaimed(propertyID int64, account string, idx int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.claims[claimKey(propertyID, account, idx)]
	return ok, nil
}

func (m *Memory) SaveDividendClaim(c models.DividendClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := claimKey(c.PropertyID, c.Account, c.Idx)
	if _, ok := m.claims[key]; ok {
		return fmt.Errorf("dividendo %d do imóvel %d já reivindicado por %s", c.Idx, c.PropertyID, c.Account)
	}
	m.claims[key] = c
	return nil
}

func (m *Memory) AppendEvent(e models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventSeq++
	e.Seq = m.eventSeq
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) ListEvents(limit int) ([]models.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := m.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return append([]models.Event(nil), events...), nil
}
