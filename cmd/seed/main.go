// Package main - operator-only bootstrap tool.
//
// seed creates the asset types and system wallets (TREASURY, and
// optionally ISSUANCE) a fresh environment needs before any user-facing
// mutation can post, and can fund TREASURY once from ISSUANCE. This is
// the only code path that ever touches an ISSUANCE wallet: the mutation
// engine (C6) never selects it as a counterparty.
//
// Usage:
//
//	go run cmd/seed/main.go -asset GOLDCOIN:"Gold Coin" -asset SILVERCOIN:"Silver Coin" -fund 1000000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallethub/ledgercore/internal/config"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
	"github.com/wallethub/ledgercore/internal/engine"
	"github.com/wallethub/ledgercore/internal/infrastructure/persistence/postgres"
)

const issuanceSystemCode = "ISSUANCE"

type assetSpec struct {
	code        string
	displayName string
}

type assetFlagList []assetSpec

func (a *assetFlagList) String() string {
	parts := make([]string, 0, len(*a))
	for _, s := range *a {
		parts = append(parts, s.code+":"+s.displayName)
	}
	return strings.Join(parts, ",")
}

func (a *assetFlagList) Set(value string) error {
	code, displayName, ok := strings.Cut(value, ":")
	if !ok || code == "" || displayName == "" {
		return fmt.Errorf("expected CODE:Display Name, got %q", value)
	}
	*a = append(*a, assetSpec{code: strings.ToUpper(strings.TrimSpace(code)), displayName: strings.TrimSpace(displayName)})
	return nil
}

func main() {
	var assets assetFlagList
	flag.Var(&assets, "asset", "CODE:Display Name, repeatable")
	fundRaw := flag.String("fund", "0", "units to mint from ISSUANCE into TREASURY for every seeded asset")
	configPath := flag.String("config", "./configs", "path to config directory")
	configName := flag.String("config-name", "config", "config file name without extension")
	flag.Parse()

	if len(assets) == 0 {
		log.Fatal("at least one -asset CODE:Display Name is required")
	}

	cfg, err := config.Load(*configPath, *configName)
	if err != nil {
		log.Printf("warning: failed to load config (%v), using development defaults", err)
		cfg = config.Development()
	}

	fund := *fundRaw != "0"
	var fundAmount valueobjects.Amount
	if fund {
		var err error
		fundAmount, err = valueobjects.ParseAmount(*fundRaw)
		if err != nil {
			log.Fatalf("invalid -fund amount: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	assetTypeRepo := postgres.NewAssetTypeRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	uow := postgres.NewUnitOfWork(pool)

	for _, a := range assets {
		if err := seedAsset(ctx, uow, assetTypeRepo, walletRepo, transactionRepo, ledgerRepo, a, fund, fundAmount); err != nil {
			log.Fatalf("failed to seed asset %s: %v", a.code, err)
		}
		log.Printf("seeded asset %s (%s)", a.code, a.displayName)
	}
}

func seedAsset(
	ctx context.Context,
	uow *postgres.UnitOfWork,
	assetTypeRepo *postgres.AssetTypeRepository,
	walletRepo *postgres.WalletRepository,
	transactionRepo *postgres.TransactionRepository,
	ledgerRepo *postgres.LedgerRepository,
	spec assetSpec,
	fund bool,
	fundAmount valueobjects.Amount,
) error {
	return uow.Execute(ctx, func(txCtx context.Context) error {
		assetType, err := assetTypeRepo.FindByCode(txCtx, spec.code)
		if err != nil {
			assetType, err = entities.NewAssetType(spec.code, spec.displayName)
			if err != nil {
				return fmt.Errorf("construct asset type: %w", err)
			}
			if err := assetTypeRepo.Save(txCtx, assetType); err != nil {
				return fmt.Errorf("save asset type: %w", err)
			}
		}

		treasury, err := walletRepo.FindSystemWallet(txCtx, engine.TreasurySystemCode, assetType.ID())
		if err != nil {
			return fmt.Errorf("find treasury wallet: %w", err)
		}
		if treasury == nil {
			treasury, err =entities.NewSystemWallet(engine.TreasurySystemCode, assetType.ID())
			if err != nil {
				return fmt.Errorf("construct treasury wallet: %w", err)
			}
			if err := walletRepo.Create(txCtx, treasury); err != nil {
				return fmt.Errorf("create treasury wallet: %w", err)
			}
		}

		if !fund {
			return nil
		}

		issuance, err := walletRepo.FindSystemWallet(txCtx, issuanceSystemCode, assetType.ID())
		if err != nil {
			return fmt.Errorf("find issuance wallet: %w", err)
		}
		if issuance == nil {
			issuance, err =entities.NewSystemWallet(issuanceSystemCode, assetType.ID())
			if err != nil {
				return fmt.Errorf("construct issuance wallet: %w", err)
			}
			if err := walletRepo.Create(txCtx, issuance); err != nil {
				return fmt.Errorf("create issuance wallet: %w", err)
			}
		}

		idempotencyKey := "seed:" + spec.code + ":" + uuid.NewString()
		tx, err := entities.NewTransaction(
			idempotencyKey, "seed-fingerprint-not-fingerprinted",
			entities.TransactionTypeTopup,
			fundAmount, assetType.ID(), issuance.ID(), treasury.ID(),
		)
		if err != nil {
			return fmt.Errorf("construct seed transaction: %w", err)
		}
		if err := transactionRepo.InsertProcessing(txCtx, tx); err != nil {
			return fmt.Errorf("insert seed transaction: %w", err)
		}

		debit, err := entities.NewLedgerEntry(tx.ID(), issuance.ID(), assetType.ID(), entities.EntryTypeDebit, fundAmount)
		if err != nil {
			return fmt.Errorf("construct debit entry: %w", err)
		}
		credit, err := entities.NewLedgerEntry(tx.ID(), treasury.ID(), assetType.ID(), entities.EntryTypeCredit, fundAmount)
		if err != nil {
			return fmt.Errorf("construct credit entry: %w", err)
		}
		if err := ledgerRepo.AppendEntries(txCtx, []*entities.LedgerEntry{debit, credit}); err != nil {
			return fmt.Errorf("append seed entries: %w", err)
		}

		tx.MarkPosted(200, fmt.Sprintf(`{"seeded":"%s","amount":"%s"}`, spec.code, fundAmount.String()))
		if err := transactionRepo.UpdateTerminalStatus(txCtx, tx); err != nil {
			return fmt.Errorf("mark seed transaction posted: %w", err)
		}

		return nil
	})
}
