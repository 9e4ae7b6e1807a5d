package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ferreirogomes/fracimo/config"
	"github.com/ferreirogomes/fracimo/handlers"
	"github.com/ferreirogomes/fracimo/models"
	"github.com/ferreirogomes/fracimo/services"
	"github.com/ferreirogomes/fracimo/settlement_listener"
	"github.com/ferreirogomes/fracimo/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	var store storage.Store
	switch cfg.DatabaseDriver {
	case "memory":
		store = storage.NewMemory()
		log.Warn("Rodando com storage em memória; nada será persistido.")
	default:
		db, err := storage.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Falha fatal ao conectar ao banco de dados e aplicar migrações: %v", err)
		}
		defer db.Close()
		store = db
	}

	settlement, err := services.NewSolanaSettlementService(cfg.SolanaRPCURL, cfg.TreasuryKey, cfg.StableMint)
	if err != nil {
		log.Fatalf("Falha ao inicializar serviço de liquidação: %v", err)
	}

	ledger := services.NewLedgerService(store, settlement, services.LedgerConfig{
		TokenPriceUSD:   cfg.TokenPriceUSD,
		PlatformFeeBp:   cfg.PlatformFeeBp,
		PlatformAccount: cfg.PlatformAccount,
	})

	if err := seedAccounts(store, cfg); err != nil {
		log.Fatalf("Falha ao criar contas iniciais: %v", err)
	}

	// Listener de liquidações em uma goroutine separada.
	listener, err := settlement_listener.NewSettlementListener(
		cfg.SolanaRPCURL, cfg.SolanaWSURL, settlement.Treasury.PublicKey())
	if err != nil {
		log.Fatalf("Falha ao inicializar listener de liquidações: %v", err)
	}
	go listener.StartListening(context.Background())
	log.Info("Listener de liquidações iniciado.")

	propertyHandler := handlers.NewPropertyHandler(ledger)
	purchaseHandler := handlers.NewPurchaseHandler(ledger)
	dividendHandler := handlers.NewDividendHandler(ledger)
	withdrawalHandler := handlers.NewWithdrawalHandler(ledger)
	userHandler := handlers.NewUserHandler(ledger)
	eventHandler := handlers.NewEventHandler(ledger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	r.Route("/properties", func(r chi.Router) {
		r.Post("/", propertyHandler.CreateProperty)
		r.Get("/", propertyHandler.ListActive)
		r.Get("/by-owner/{address}", propertyHandler.ListByOwner)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", propertyHandler.GetPropertyByID)
			r.Post("/deactivate", propertyHandler.DeactivatePool)
			r.Post("/reactivate", propertyHandler.ReactivatePool)
			r.Put("/yield", propertyHandler.UpdateYield)
			r.Post("/transfer-deed", propertyHandler.TransferDeed)
			r.Get("/investors", propertyHandler.ListInvestors)
			r.Get("/balances/{address}", propertyHandler.GetBalance)

			r.Post("/purchase", purchaseHandler.BuyTokens)
			r.Post("/purchase/stable/prepare", purchaseHandler.PrepareStablePurchase)
			r.Post("/purchase/stable/complete", purchaseHandler.CompleteStablePurchase)

			r.Route("/dividends", func(r chi.Router) {
				r.Post("/", dividendHandler.Distribute)
				r.Get("/", dividendHandler.List)
				r.Post("/claim-all", dividendHandler.ClaimAll)
				r.Get("/claimable/{address}", dividendHandler.Claimable)
				r.Post("/{idx}/claim", dividendHandler.Claim)
			})
		})
	})

	r.Route("/withdrawals", func(r chi.Router) {
		r.Post("/", withdrawalHandler.Withdraw)
		r.Get("/pending/{address}", withdrawalHandler.Pending)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUser)
		r.Get("/{address}", userHandler.GetUserByAddress)
		r.Get("/{address}/tokens", userHandler.GetUserTokens)
		r.Put("/{address}/verification", userHandler.SetVerification)
		r.Put("/{address}/blacklist", userHandler.SetBlacklist)
		r.Put("/{address}/role", userHandler.SetRole)
	})

	r.Get("/events", eventHandler.List)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	fmt.Printf("Servidor backend rodando na porta %s...\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// seedAccounts garante que as contas de admin e da plataforma existam.
func seedAccounts(store storage.Store, cfg config.Config) error {
	seeds := []struct {
		address string
		role    models.Role
	}{
		{cfg.AdminAccount, models.RoleAdmin},
		{cfg.PlatformAccount, models.RoleAccount},
	}
	for _, seed := range seeds {
		if seed.address == "" {
			continue
		}
		_, found, err := store.GetUser(seed.address)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		err = store.SaveUser(models.User{
			Address:    seed.address,
			Role:       seed.role,
			IsVerified: true,
			CreatedAt:  time.Now(),
		})
		if err != nil {
			return err
		}
		log.Infof("Conta %s (%s) criada no primeiro start.", seed.address, seed.role)
	}
	return nil
}
