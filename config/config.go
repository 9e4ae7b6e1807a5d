package config

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config reúne toda a configuração do serviço.
type Config struct {
	ServerPort int

	DatabaseDriver string // "postgres" ou "memory" (dev/testes)
	DatabaseURL    string

	SolanaRPCURL    string
	SolanaWSURL     string
	TreasuryKey     string // chave privada da tesouraria, Base58
	StableMint      string // mint do ativo estável aceito nas compras
	PlatformAccount string // conta que recebe as taxas da plataforma
	AdminAccount    string // conta admin criada no primeiro start

	PlatformFeeBp int64 // taxa da plataforma em basis points
	TokenPriceUSD int64 // preço fixo do token em dólares inteiros
}

// Load carrega config.yaml (se existir) com defaults sensatos.
func Load() Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.url", "host=localhost port=5432 user=fracimo password=fracimo dbname=fracimo sslmode=disable")
	viper.SetDefault("solana.rpc_url", "https://api.devnet.solana.com")
	viper.SetDefault("solana.ws_url", "wss://api.devnet.solana.com")
	viper.SetDefault("platform.fee_bp", 250)
	viper.SetDefault("platform.account", "platform")
	viper.SetDefault("platform.admin", "admin")
	viper.SetDefault("token.price_usd", 50)

	if err := viper.ReadInConfig(); err != nil {
		log.Info("Nenhum arquivo de configuração encontrado, usando defaults.")
	}

	return Config{
		ServerPort:      viper.GetInt("server.port"),
		DatabaseDriver:  viper.GetString("database.driver"),
		DatabaseURL:     viper.GetString("database.url"),
		SolanaRPCURL:    viper.GetString("solana.rpc_url"),
		SolanaWSURL:     viper.GetString("solana.ws_url"),
		TreasuryKey:     viper.GetString("solana.treasury_key"),
		StableMint:      viper.GetString("solana.stable_mint"),
		PlatformAccount: viper.GetString("platform.account"),
		AdminAccount:    viper.GetString("platform.admin"),
		PlatformFeeBp:   viper.GetInt64("platform.fee_bp"),
		TokenPriceUSD:   viper.GetInt64("token.price_usd"),
	}
}
