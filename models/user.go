package models

import "time"

// Role define o papel de uma conta dentro da plataforma.
// Enum fechado: evita comparação de strings arbitrárias nas checagens.
type Role string

const (
	RoleAccount           Role = "account"
	RolePropertyManager   Role = "property_manager"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleAdmin             Role = "admin"
)

// Valid indica se o papel é um dos papéis definidos.
func (r Role) Valid() bool {
	switch r {
	case RoleAccount, RolePropertyManager, RoleComplianceOfficer, RoleAdmin:
		return true
	}
	return false
}

// CanManageCompliance indica se a conta pode alterar verificação/blacklist.
func (r Role) CanManageCompliance() bool {
	return r == RoleComplianceOfficer || r == RoleAdmin
}

// User representa uma conta da plataforma (investidor, dono de imóvel,
// oficial de compliance ou admin), identificada pelo seu endereço.
type User struct {
	Address       string    `db:"address" json:"address"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	SolanaPubKey  string    `db:"solana_pub_key" json:"solana_pub_key"`
	Role          Role      `db:"role" json:"role"`
	IsVerified    bool      `db:"is_verified" json:"is_verified"`
	IsBlacklisted bool      `db:"is_blacklisted" json:"is_blacklisted"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
