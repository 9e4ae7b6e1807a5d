package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ferreirogomes/fracimo/models"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
)

// DB é a implementação de Store sobre PostgreSQL.
type DB struct {
	queries
	conn *sqlx.DB
}

// queries concentra o SQL; roda tanto sobre a conexão quanto sobre uma
// transação aberta (sqlx.Ext cobre os dois casos).
type queries struct {
	ext sqlx.Ext
}

// NewDB conecta-se ao PostgreSQL e executa as migrações.
func NewDB(dataSourceName string) (*DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("falha ao pingar o banco de dados: %w", err)
	}
	log.Info("Conexão com PostgreSQL estabelecida com sucesso.")

	if err := runMigrations(db.DB); err != nil {
		return nil, fmt.Errorf("falha ao executar migrações: %w", err)
	}

	return &DB{queries: queries{ext: db}, conn: db}, nil
}

// Close encerra a conexão.
func (d *DB) Close() error {
	return d.conn.Close()
}

// runMigrations aplica as migrações SQL com sql-migrate.
func runMigrations(db *sql.DB) error {
	migrations := &migrate.FileMigrationSource{
		Dir: "./storage/migrations",
	}

	n, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	if n > 0 {
		log.Infof("Aplicadas %d migrações ao banco de dados.", n)
	} else {
		log.Info("Nenhuma migração nova para aplicar.")
	}
	return nil
}

// txStore é a visão de Store dentro de uma transação aberta.
type txStore struct {
	queries
	tx *sqlx.Tx
}

// Transact abre uma transação e aplica fn de forma atômica.
func (d *DB) Transact(fn func(Store) error) error {
	tx, err := d.conn.Beginx()
	if err != nil {
		return fmt.Errorf("falha ao abrir transação: %w", err)
	}
	s := &txStore{queries: queries{ext: tx}, tx: tx}
	if err := fn(s); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Errorf("Falha ao dar rollback na transação: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao commitar transação: %w", err)
	}
	return nil
}

// Transact já dentro de uma transação apenas reaproveita a corrente.
func (t *txStore) Transact(fn func(Store) error) error {
	return fn(t)
}

func (q queries) SaveUser(user models.User) error {
	_, err := q.ext.Exec(`
		INSERT INTO users (address, name, email, solana_pub_key, role, is_verified, is_blacklisted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			solana_pub_key = EXCLUDED.solana_pub_key,
			role = EXCLUDED.role,
			is_verified = EXCLUDED.is_verified,
			is_blacklisted = EXCLUDED.is_blacklisted`,
		user.Address, user.Name, user.Email, user.SolanaPubKey, user.Role,
		user.IsVerified, user.IsBlacklisted, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao salvar usuário: %w", err)
	}
	return nil
}

func (q queries) GetUser(address string) (models.User, bool, error) {
	var u models.User
	err := sqlx.Get(q.ext, &u, `SELECT * FROM users WHERE address = $1`, address)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("falha ao buscar usuário: %w", err)
	}
	return u, true, nil
}

func (q queries) CreateProperty(p models.Property) (int64, error) {
	var id int64
	err := sqlx.Get(q.ext, &id, `
		INSERT INTO properties (name, description, location, image_ref, total_value_usd, area,
			owner_account, total_tokens, tokens_sold, total_raised, is_active, estimated_yield_bp,
			total_dividends_distributed, last_dividend_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		p.Name, p.Description, p.Location, p.ImageRef, p.TotalValueUSD, p.Area,
		p.OwnerAccount, p.TotalTokens, p.TokensSold, p.TotalRaised, p.IsActive, p.EstimatedYieldBp,
		p.TotalDividendsDistributed, p.LastDividendAt, p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("falha ao criar imóvel: %w", err)
	}
	return id, nil
}

func (q queries) UpdateProperty(p models.Property) error {
	res, err := q.ext.Exec(`
		UPDATE properties SET
			name = $1, description = $2, location = $3, image_ref = $4,
			total_value_usd = $5, area = $6, owner_account = $7, total_tokens = $8,
			tokens_sold = $9, total_raised = $10, is_active = $11, estimated_yield_bp = $12,
			total_dividends_distributed = $13, last_dividend_at = $14
		WHERE id = $15`,
		p.Name, p.Description, p.Location, p.ImageRef,
		p.TotalValueUSD, p.Area, p.OwnerAccount, p.TotalTokens,
		p.TokensSold, p.TotalRaised, p.IsActive, p.EstimatedYieldBp,
		p.TotalDividendsDistributed, p.LastDividendAt, p.ID)
	if err != nil {
		return fmt.Errorf("falha ao atualizar imóvel: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("imóvel %d não existe", p.ID)
	}
	return nil
}

func (q queries) GetProperty(id int64) (models.Property, bool, error) {
	var p models.Property
	err := sqlx.Get(q.ext, &p, `SELECT * FROM properties WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Property{}, false, nil
	}
	if err != nil {
		return models.Property{}, false, fmt.Errorf("falha ao buscar imóvel: %w", err)
	}
	return p, true, nil
}

func (q queries) ListActiveProperties() ([]models.Property, error) {
	var out []models.Property
	if err := sqlx.Select(q.ext, &out, `SELECT * FROM properties WHERE is_active ORDER BY id`); err != nil {
		return nil, fmt.Errorf("falha ao listar imóveis ativos: %w", err)
	}
	return out, nil
}

func (q queries) ListPropertiesByOwner(owner string) ([]models.Property, error) {
	var out []models.Property
	if err := sqlx.Select(q.ext, &out, `SELECT * FROM properties WHERE owner_account = $1 ORDER BY id`, owner); err != nil {
		return nil, fmt.Errorf("falha ao listar imóveis do dono: %w", err)
	}
	return out, nil
}

func (q queries) GetTokenBalance(propertyID int64, account string) (int64, error) {
	var tokens int64
	err := sqlx.Get(q.ext, &tokens,
		`SELECT COALESCE((SELECT tokens FROM token_balances WHERE property_id = $1 AND account = $2), 0)`,
		propertyID, account)
	if err != nil {
		return 0, fmt.Errorf("falha ao buscar saldo de tokens: %w", err)
	}
	return tokens, nil
}

func (q queries) AddTokenBalance(propertyID int64, account string, delta int64) error {
	_, err := q.ext.Exec(`
		INSERT INTO token_balances (property_id, account, tokens, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (property_id, account) DO UPDATE SET
			tokens = token_balances.tokens + EXCLUDED.tokens`,
		propertyID, account, delta)
	if err != nil {
		return fmt.Errorf("falha ao creditar tokens: %w", err)
	}
	return nil
}

func (q queries) HasInvestor(propertyID int64, account string) (bool, error) {
	var seen bool
	err := sqlx.Get(q.ext, &seen,
		`SELECT EXISTS(SELECT 1 FROM investor_index WHERE property_id = $1 AND account = $2)`,
		propertyID, account)
	if err != nil {
		return false, fmt.Errorf("falha ao consultar índice de investidores: %w", err)
	}
	return seen, nil
}

func (q queries) AppendInvestor(propertyID int64, account string) error {
	_, err := q.ext.Exec(`
		INSERT INTO investor_index (property_id, account)
		VALUES ($1, $2)
		ON CONFLICT (property_id, account) DO NOTHING`,
		propertyID, account)
	if err != nil {
		return fmt.Errorf("falha ao registrar investidor: %w", err)
	}
	return nil
}

func (q queries) ListInvestors(propertyID int64) ([]string, error) {
	var out []string
	err := sqlx.Select(q.ext, &out,
		`SELECT account FROM investor_index WHERE property_id = $1 ORDER BY position`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar investidores: %w", err)
	}
	return out, nil
}

func (q queries) ListHoldings(account string) ([]models.TokenBalance, error) {
	var out []models.TokenBalance
	err := sqlx.Select(q.ext, &out,
		`SELECT * FROM token_balances WHERE account = $1 AND tokens > 0 ORDER BY property_id`, account)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar posições: %w", err)
	}
	return out, nil
}

func (q queries) GetPendingWithdrawal(account string) (int64, error) {
	var amount int64
	err := sqlx.Get(q.ext, &amount,
		`SELECT COALESCE((SELECT amount FROM pending_withdrawals WHERE account = $1), 0)`, account)
	if err != nil {
		return 0, fmt.Errorf("falha ao buscar saque pendente: %w", err)
	}
	return amount, nil
}

func (q queries) AddPendingWithdrawal(account string, delta int64) error {
	_, err := q.ext.Exec(`
		INSERT INTO pending_withdrawals (account, amount)
		VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET
			amount = pending_withdrawals.amount + EXCLUDED.amount`,
		account, delta)
	if err != nil {
		return fmt.Errorf("falha ao creditar saque pendente: %w", err)
	}
	return nil
}

func (q queries) ClearPendingWithdrawal(account string) error {
	_, err := q.ext.Exec(`UPDATE pending_withdrawals SET amount = 0 WHERE account = $1`, account)
	if err != nil {
		return fmt.Errorf("falha ao zerar saque pendente: %w", err)
	}
	return nil
}

func (q queries) SaveWithdrawal(w models.Withdrawal) error {
	_, err := q.ext.Exec(`
		INSERT INTO withdrawals (id, account, amount, status, tx_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.Account, w.Amount, w.Status, w.TxID, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao salvar registro de saque: %w", err)
	}
	return nil
}

func (q queries) UpdateWithdrawal(w models.Withdrawal) error {
	_, err := q.ext.Exec(`UPDATE withdrawals SET status = $1, tx_id = $2 WHERE id = $3`,
		w.Status, w.TxID, w.ID)
	if err != nil {
		return fmt.Errorf("falha ao atualizar registro de saque: %w", err)
	}
	return nil
}

func (q queries) AppendDividend(d models.DividendDistribution) error {
	_, err := q.ext.Exec(`
		INSERT INTO dividends (property_id, idx, total_amount, amount_per_token, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		d.PropertyID, d.Idx, d.TotalAmount, d.AmountPerToken, d.Description, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao registrar distribuição de dividendo: %w", err)
	}
	return nil
}

func (q queries) GetDividend(propertyID, idx int64) (models.DividendDistribution, bool, error) {
	var d models.DividendDistribution
	err := sqlx.Get(q.ext, &d, `SELECT * FROM dividends WHERE property_id = $1 AND idx = $2`, propertyID, idx)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DividendDistribution{}, false, nil
	}
	if err != nil {
		return models.DividendDistribution{}, false, fmt.Errorf("falha ao buscar dividendo: %w", err)
	}
	return d, true, nil
}

func (q queries) ListDividends(propertyID int64) ([]models.DividendDistribution, error) {
	var out []models.DividendDistribution
	err := sqlx.Select(q.ext, &out, `SELECT * FROM dividends WHERE property_id = $1 ORDER BY idx`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("falha ao listar dividendos: %w", err)
	}
	return out, nil
}

func (q queries) CountDividends(propertyID int64) (int64, error) {
	var n int64
	err := sqlx.Get(q.ext, &n, `SELECT count(*) FROM dividends WHERE property_id = $1`, propertyID)
	if err != nil {
		return 0, fmt.Errorf("falha ao contar dividendos: %w", err)
	}
	return n, nil
}

func (q queries) IsDividendClaimed(propertyID int64, account string, idx int64) (bool, error) {
	var claimed bool
	err := sqlx.Get(q.ext, &claimed,
		`SELECT EXISTS(SELECT 1 FROM dividend_claims WHERE property_id = $1 AND account = $2 AND idx = $3)`,
		propertyID, account, idx)
	if err != nil {
		return false, fmt.Errorf("falha ao consultar reivindicação: %w", err)
	}
	return claimed, nil
}

func (q queries) SaveDividendClaim(c models.DividendClaim) error {
	_, err := q.ext.Exec(`
		INSERT INTO dividend_claims (property_id, account, idx, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.PropertyID, c.Account, c.Idx, c.Amount, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao registrar reivindicação: %w", err)
	}
	return nil
}

func (q queries) AppendEvent(e models.Event) error {
	_, err := q.ext.Exec(`
		INSERT INTO events (id, type, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		e.ID, e.Type, types.JSONText(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("falha ao registrar evento: %w", err)
	}
	return nil
}

func (q queries) ListEvents(limit int) ([]models.Event, error) {
	var rows []struct {
		ID        string         `db:"id"`
		Seq       int64          `db:"seq"`
		Type      string         `db:"type"`
		Payload   types.JSONText `db:"payload"`
		CreatedAt sql.NullTime   `db:"created_at"`
	}
	var err error
	if limit > 0 {
		err = sqlx.Select(q.ext, &rows, `
			SELECT id, seq, type, payload, created_at FROM
				(SELECT * FROM events ORDER BY seq DESC LIMIT $1) sub
			ORDER BY seq`, limit)
	} else {
		err = sqlx.Select(q.ext, &rows,
			`SELECT id, seq, type, payload, created_at FROM events ORDER BY seq`)
	}
	if err != nil {
		return nil, fmt.Errorf("falha ao listar eventos: %w", err)
	}
	out := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		e := models.Event{ID: r.ID, Seq: r.Seq, Type: r.Type, Payload: []byte(r.Payload)}
		if r.CreatedAt.Valid {
			e.CreatedAt = r.CreatedAt.Time
		}
		out = append(out, e)
	}
	return out, nil
}
