package storage

import "github.com/ferreirogomes/fracimo/models"

// Store é a interface de persistência do core contábil. As implementações
// são PostgreSQL (DB) e memória (Memory, usada em testes e no modo dev).
//
// Transact executa fn sobre uma visão transacional do store: se fn retornar
// erro, nenhuma escrita feita dentro dela é aplicada. O core roda toda
// operação mutante inteira dentro de um único Transact, protegida por um
// mutex global, de modo que qualquer falha de pré-condição aborta sem
// alterar estado.
type Store interface {
	Transact(fn func(Store) error) error

	// Contas
	SaveUser(user models.User) error
	GetUser(address string) (models.User, bool, error)

	// Imóveis
	CreateProperty(p models.Property) (int64, error)
	UpdateProperty(p models.Property) error
	GetProperty(id int64) (models.Property, bool, error)
	ListActiveProperties() ([]models.Property, error)
	ListPropertiesByOwner(owner string) ([]models.Property, error)

	// Ledger de tokens
	GetTokenBalance(propertyID int64, account string) (int64, error)
	AddTokenBalance(propertyID int64, account string, delta int64) error
	HasInvestor(propertyID int64, account string) (bool, error)
	AppendInvestor(propertyID int64, account string) error
	ListInvestors(propertyID int64) ([]string, error)
	ListHoldings(account string) ([]models.TokenBalance, error)

	// Fila de saques
	GetPendingWithdrawal(account string) (int64, error)
	AddPendingWithdrawal(account string, delta int64) error
	ClearPendingWithdrawal(account string) error
	SaveWithdrawal(w models.Withdrawal) error
	UpdateWithdrawal(w models.Withdrawal) error

	// Dividendos
	AppendDividend(d models.DividendDistribution) error
	GetDividend(propertyID, idx int64) (models.DividendDistribution, bool, error)
	ListDividends(propertyID int64) ([]models.DividendDistribution, error)
	CountDividends(propertyID int64) (int64, error)
	IsDividendClaimed(propertyID int64, account string, idx int64) (bool, error)
	SaveDividendClaim(c models.DividendClaim) error

	// Eventos
	AppendEvent(e models.Event) error
	ListEvents(limit int) ([]models.Event, error)
}
