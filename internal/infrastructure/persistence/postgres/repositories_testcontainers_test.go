// Package postgres - integration tests against a real PostgreSQL instance
// via testcontainers-go, exercising the schema in ../../../../migrations.
//
// Run with:
//
//	go test ./internal/infrastructure/persistence/postgres/...
//
// Requires a running Docker daemon.
package postgres

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/google/uuid"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
)

// ============================================
// Test Helpers
// ============================================

type testContainer struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
}

var sharedTestContainer *testContainer

func setupSharedTestDB(t *testing.T) *testContainer {
	if sharedTestContainer != nil {
		cleanupTables(t, sharedTestContainer.pool)
		return sharedTestContainer
	}

	ctx := context.Background()

	migrationsPath := filepath.Join("..", "..", "..", "..", "migrations")

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "000001_initial_schema.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	err = pool.Ping(ctx)
	require.NoError(t, err)

	sharedTestContainer = &testContainer{container: container, pool: pool}
	return sharedTestContainer
}

// cleanupTables truncates in dependency order so the next test starts clean.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	tables := []string{"ledger_entries", "transactions", "wallets", "asset_types", "users"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("warning: failed to cleanup %s: %v", table, err)
		}
	}
}

func mustAmount(t *testing.T, units int64) valueobjects.Amount {
	amount, err := valueobjects.NewAmount(units)
	require.NoError(t, err)
	return amount
}

// ============================================
// UserRepository
// ============================================

func TestUserRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	repo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("SaveAndFindByID", func(t *testing.T) {
		user, err := entities.NewUser("ledger-user@example.com")
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, user))

		found, err := repo.FindByID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, user.Email(), found.Email())
	})

	t.Run("FindByEmail", func(t *testing.T) {
		user, _ := entities.NewUser("find-by-email@example.com")
		require.NoError(t, repo.Save(ctx, user))

		found, err := repo.FindByEmail(ctx, "find-by-email@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID(), found.ID())
	})

	t.Run("FindByID_NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeUserNotFound, appErr.Code)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		user1, _ := entities.NewUser("dup@example.com")
		require.NoError(t, repo.Save(ctx, user1))

		user2, _ := entities.NewUser("dup@example.com")
		err := repo.Save(ctx, user2)
		assert.Error(t, err)
	})
}

// ============================================
// AssetTypeRepository
// ============================================

func TestAssetTypeRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	repo := NewAssetTypeRepository(tc.pool)
	ctx := context.Background()

	t.Run("SaveAndFindByCode", func(t *testing.T) {
		assetType, err := entities.NewAssetType("GOLDCOIN", "Gold Coin")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, assetType))

		found, err := repo.FindByCode(ctx, "GOLDCOIN")
		require.NoError(t, err)
		assert.Equal(t, assetType.ID(), found.ID())
		assert.Equal(t, "Gold Coin", found.DisplayName())
	})

	t.Run("FindByCode_NotFound", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "NOSUCHASSET")
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeAssetTypeNotFound, appErr.Code)
	})
}

// ============================================
// WalletRepository
// ============================================

func TestWalletRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetTypeRepo := NewAssetTypeRepository(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	userRepo := NewUserRepository(tc.pool)
	ctx := context.Background()

	seedAssetType := func(t *testing.T, code string) *entities.AssetType {
		assetType, err := entities.NewAssetType(code, code)
		require.NoError(t, err)
		require.NoError(t, assetTypeRepo.Save(ctx, assetType))
		return assetType
	}

	// wallets.user_id references users, so every user wallet needs a saved owner.
	seedUserID := func(t *testing.T) uuid.UUID {
		user, err := entities.NewUser(uuid.NewString() + "@example.com")
		require.NoError(t, err)
		require.NoError(t, userRepo.Save(ctx, user))
		return user.ID()
	}

	t.Run("CreateAndFindUserWallet", func(t *testing.T) {
		assetType := seedAssetType(t, "SILVERCOIN")
		userID := seedUserID(t)

		wallet, err := entities.NewUserWallet(userID, assetType.ID())
		require.NoError(t, err)
		require.NoError(t, walletRepo.Create(ctx, wallet))

		found, err := walletRepo.FindUserWallet(ctx, userID, assetType.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, wallet.ID(), found.ID())
		assert.Equal(t, int64(0), found.Version())
	})

	t.Run("FindUserWallet_NotFound_ReturnsNilNil", func(t *testing.T) {
		assetType := seedAssetType(t, "BRONZECOIN")

		found, err := walletRepo.FindUserWallet(ctx, uuid.New(), assetType.ID())
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("CreateAndFindSystemWallet", func(t *testing.T) {
		assetType := seedAssetType(t, "PLATINUMCOIN")

		wallet, err := entities.NewSystemWallet("treasury", assetType.ID())
		require.NoError(t, err)
		require.NoError(t, walletRepo.Create(ctx, wallet))

		found, err := walletRepo.FindSystemWallet(ctx, "TREASURY", assetType.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, wallet.ID(), found.ID())
	})

	t.Run("DuplicateOwnerAssetPair_Rejected", func(t *testing.T) {
		assetType := seedAssetType(t, "DUPEASSET")
		userID := seedUserID(t)

		wallet1, _ := entities.NewUserWallet(userID, assetType.ID())
		require.NoError(t, walletRepo.Create(ctx, wallet1))

		wallet2, _ := entities.NewUserWallet(userID, assetType.ID())
		err := walletRepo.Create(ctx, wallet2)
		assert.Error(t, err)
	})

	t.Run("LockWallets_OrdersAscendingAndReturnsAll", func(t *testing.T) {
		assetType := seedAssetType(t, "LOCKASSET")

		walletA, _ := entities.NewUserWallet(seedUserID(t), assetType.ID())
		walletB, _ := entities.NewUserWallet(seedUserID(t), assetType.ID())
		require.NoError(t, walletRepo.Create(ctx, walletA))
		require.NoError(t, walletRepo.Create(ctx, walletB))

		ids := []uuid.UUID{walletA.ID(), walletB.ID()}
		if ids[0].String() > ids[1].String() {
			ids[0], ids[1] = ids[1], ids[0]
		}

		locked, err := walletRepo.LockWallets(ctx, ids)
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.Equal(t, ids[0], locked[0].ID())
		assert.Equal(t, ids[1], locked[1].ID())
	})

	t.Run("LockWallets_EmptyIDs_Rejected", func(t *testing.T) {
		_, err := walletRepo.LockWallets(ctx, nil)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeLockKeysMissing, appErr.Code)
	})

	t.Run("BumpVersion_SucceedsOnMatchingVersion", func(t *testing.T) {
		assetType := seedAssetType(t, "BUMPASSET")
		wallet, _ := entities.NewUserWallet(seedUserID(t), assetType.ID())
		require.NoError(t, walletRepo.Create(ctx, wallet))

		ok, err := walletRepo.BumpVersion(ctx, wallet.ID(), 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("BumpVersion_FailsOnStaleVersion", func(t *testing.T) {
		assetType := seedAssetType(t, "STALEASSET")
		wallet, _ := entities.NewUserWallet(seedUserID(t), assetType.ID())
		require.NoError(t, walletRepo.Create(ctx, wallet))

		ok, err := walletRepo.BumpVersion(ctx, wallet.ID(), 5)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// ============================================
// TransactionRepository + LedgerRepository
// ============================================

func TestTransactionAndLedgerRepository_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	assetTypeRepo := NewAssetTypeRepository(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	transactionRepo := NewTransactionRepository(tc.pool)
	ledgerRepo := NewLedgerRepository(tc.pool)
	userRepo := NewUserRepository(tc.pool)
	ctx := context.Background()

	// wallets.user_id references users, so every user wallet needs a saved owner.
	seedUserID := func(t *testing.T) uuid.UUID {
		owner, err := entities.NewUser(uuid.NewString() + "@example.com")
		require.NoError(t, err)
		require.NoError(t, userRepo.Save(ctx, owner))
		return owner.ID()
	}

	seedPosting := func(t *testing.T, assetCode string) (*entities.Transaction, *entities.Wallet, *entities.Wallet) {
		assetType, err := entities.NewAssetType(assetCode, assetCode)
		require.NoError(t, err)
		require.NoError(t, assetTypeRepo.Save(ctx, assetType))

		treasury, err := entities.NewSystemWallet("TREASURY", assetType.ID())
		require.NoError(t, err)
		require.NoError(t, walletRepo.Create(ctx, treasury))

		user, err := entities.NewUserWallet(seedUserID(t), assetType.ID())
		require.NoError(t, err)
		require.NoError(t, walletRepo.Create(ctx, user))

		amount := mustAmount(t, 500)
		idempotencyKey := "test:" + uuid.NewString()
		tx, err := entities.NewTransaction(idempotencyKey, "fp", entities.TransactionTypeTopup, amount, assetType.ID(), treasury.ID(), user.ID())
		require.NoError(t, err)
		require.NoError(t, transactionRepo.InsertProcessing(ctx, tx))

		return tx, treasury, user
	}

	t.Run("InsertProcessing_ThenFindByIdempotencyKey", func(t *testing.T) {
		tx, _, _ := seedPosting(t, "TXASSET1")

		found, err := transactionRepo.FindByIdempotencyKey(ctx, tx.IdempotencyKey())
		require.NoError(t, err)
		assert.Equal(t, tx.ID(), found.ID())
		assert.True(t, found.IsProcessing())
	})

	t.Run("InsertProcessing_DuplicateKey_Rejected", func(t *testing.T) {
		tx, treasury, user := seedPosting(t, "TXASSET2")

		duplicate, err := entities.NewTransaction(tx.IdempotencyKey(), "fp2", entities.TransactionTypeTopup, mustAmount(t, 1), tx.AssetTypeID(), treasury.ID(), user.ID())
		require.NoError(t, err)

		err = transactionRepo.InsertProcessing(ctx, duplicate)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.CodeIdempotencyKeyReused, appErr.Code)
	})

	t.Run("UpdateTerminalStatus_MarksPosted", func(t *testing.T) {
		tx, _, _ := seedPosting(t, "TXASSET3")

		tx.MarkPosted(201, `{"ok":true}`)
		require.NoError(t, transactionRepo.UpdateTerminalStatus(ctx, tx))

		found, err := transactionRepo.FindByIdempotencyKey(ctx, tx.IdempotencyKey())
		require.NoError(t, err)
		assert.True(t, found.IsPosted())
		require.NotNil(t, found.ResponseBody())
		assert.Equal(t, `{"ok":true}`, *found.ResponseBody())
	})

	t.Run("AppendEntries_ThenAggregateBalance", func(t *testing.T) {
		tx, treasury, user := seedPosting(t, "TXASSET4")
		amount := tx.Amount()

		debit, err := entities.NewLedgerEntry(tx.ID(), treasury.ID(), tx.AssetTypeID(), entities.EntryTypeDebit, amount)
		require.NoError(t, err)
		credit, err := entities.NewLedgerEntry(tx.ID(), user.ID(), tx.AssetTypeID(), entities.EntryTypeCredit, amount)
		require.NoError(t, err)

		require.NoError(t, ledgerRepo.AppendEntries(ctx, []*entities.LedgerEntry{debit, credit}))

		userBalance, err := ledgerRepo.AggregateBalance(ctx, user.ID(), tx.AssetTypeID())
		require.NoError(t, err)
		assert.Equal(t, amount.Units(), userBalance)

		treasuryBalance, err := ledgerRepo.AggregateBalance(ctx, treasury.ID(), tx.AssetTypeID())
		require.NoError(t, err)
		assert.Equal(t, -amount.Units(), treasuryBalance)
	})

	t.Run("ListUserBalances_IncludesZeroBalanceWallets", func(t *testing.T) {
		assetType, err := entities.NewAssetType("ZEROASSET", "Zero Asset")
		require.NoError(t, err)
		require.NoError(t, assetTypeRepo.Save(ctx, assetType))

		userID := seedUserID(t)
		wallet, err := entities.NewUserWallet(userID, assetType.ID())
		require.NoError(t, err)
		require.NoError(t, walletRepo.Create(ctx, wallet))

		balances, err := ledgerRepo.ListUserBalances(ctx, userID)
		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, "ZEROASSET", balances[0].AssetCode)
		assert.Equal(t, int64(0), balances[0].Balance)
	})
}

// ============================================
// UnitOfWork
// ============================================

func TestUnitOfWork_Integration(t *testing.T) {
	tc := setupSharedTestDB(t)
	userRepo := NewUserRepository(tc.pool)
	uow := NewUnitOfWork(tc.pool)
	ctx := context.Background()

	t.Run("CommitsOnSuccess", func(t *testing.T) {
		user, _ := entities.NewUser("uow-commit@example.com")

		err := uow.Execute(ctx, func(txCtx context.Context) error {
			return userRepo.Save(txCtx, user)
		})
		require.NoError(t, err)

		found, err := userRepo.FindByID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, user.Email(), found.Email())
	})

	t.Run("RollsBackOnError", func(t *testing.T) {
		user, _ := entities.NewUser("uow-rollback@example.com")

		err := uow.Execute(ctx, func(txCtx context.Context) error {
			if err := userRepo.Save(txCtx, user); err != nil {
				return err
			}
			return fmt.Errorf("forced rollback")
		})
		assert.Error(t, err)

		_, err = userRepo.FindByID(ctx, user.ID())
		assert.Error(t, err)
	})
}
