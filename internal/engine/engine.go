// Package engine implements the wallet mutation core: the pipeline
// that turns a topup/bonus/spend request into idempotent, lock-protected,
// double-entry ledger postings. Its overall shape (UnitOfWork-wrapped,
// idempotency-first, command struct in / result out) follows this
// codebase's transaction use cases, diverging where this domain is
// stricter: insert-or-replay instead of find-then-skip, in-transaction
// row locking of both wallets, an explicit version-bump-and-assert step,
// and insufficient funds as a terminal
// persisted FAILED response rather than a raised error.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/cache"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/entities"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
	"github.com/wallethub/ledgercore/internal/lock"
	"github.com/wallethub/ledgercore/internal/walletlock"
)

// TreasurySystemCode identifies the operator-owned wallet every TOPUP and
// BONUS draws from and every SPEND returns to. The runtime engine never
// references any other system wallet code: ISSUANCE, if modeled at all,
// is only ever touched by the out-of-band seeding tool.
const TreasurySystemCode = "TREASURY"

const idempotencyCacheDefaultTTL = 24 * time.Hour

// MutationRequest is the input to Topup/Bonus/Spend.
type MutationRequest struct {
	UserID             uuid.UUID
	AssetCode          string
	Amount             valueobjects.Amount
	IdempotencyKey     string
	RequestFingerprint string
}

// MutationResult is what the HTTP layer renders back to the client.
type MutationResult struct {
	StatusCode int
	Body       string
	Replayed   bool
}

// SuccessPayload is the wire shape of a posted mutation.
type SuccessPayload struct {
	TransactionID string `json:"transactionId"`
	IdempotencyKey string `json:"idempotencyKey"`
	Operation      string `json:"operation"`
	UserID         string `json:"userId"`
	AssetCode      string `json:"assetCode"`
	Amount         string `json:"amount"`
	Balance        string `json:"balance"`
	FromWalletID   string `json:"fromWalletId"`
	ToWalletID     string `json:"toWalletId"`
	CreatedAt      string `json:"createdAt"`
}

// Engine is C6: the wallet mutation and balance-query core. It depends
// only on the C1-C5 ports/interfaces, never on a concrete transport.
type Engine struct {
	users        ports.UserRepository
	assetTypes   ports.AssetTypeRepository
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	ledger       ports.LedgerRepository
	uow          ports.UnitOfWork
	idemCache    cache.IdempotencyCache
	walletLock   lock.WalletLock
	cacheTTL     time.Duration
	logger       *slog.Logger
}

func New(
	users ports.UserRepository,
	assetTypes ports.AssetTypeRepository,
	wallets ports.WalletRepository,
	transactions ports.TransactionRepository,
	ledger ports.LedgerRepository,
	uow ports.UnitOfWork,
	idemCache cache.IdempotencyCache,
	walletLock lock.WalletLock,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Engine {
	if cacheTTL <= 0 {
		cacheTTL = idempotencyCacheDefaultTTL
	}
	return &Engine{
		users:        users,
		assetTypes:   assetTypes,
		wallets:      wallets,
		transactions: transactions,
		ledger:       ledger,
		uow:          uow,
		idemCache:    idemCache,
		walletLock:   walletLock,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Topup credits a user wallet from TREASURY, recorded as TOPUP.
func (e *Engine) Topup(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return e.mutate(ctx, req, entities.TransactionTypeTopup)
}

// Bonus credits a user wallet from TREASURY, recorded as BONUS. Ledger
// semantics are identical to Topup; only the transaction type differs.
func (e *Engine) Bonus(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return e.mutate(ctx, req, entities.TransactionTypeBonus)
}

// Spend debits a user wallet back to TREASURY, recorded as SPEND.
func (e *Engine) Spend(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	return e.mutate(ctx, req, entities.TransactionTypeSpend)
}

func (e *Engine) mutate(ctx context.Context, req MutationRequest, txType entities.TransactionType) (*MutationResult, error) {
	if cached, ok := e.idemCache.Get(ctx, req.IdempotencyKey); ok {
		if cached.Fingerprint != req.RequestFingerprint {
			return nil, apperrors.NewIdempotencyKeyReused()
		}
		return &MutationResult{StatusCode: cached.StatusCode, Body: cached.Body, Replayed: true}, nil
	}

	assetType, err := e.assetTypes.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(req.AssetCode)))
	if err != nil {
		return nil, err
	}

	userWallet, err := e.wallets.FindUserWallet(ctx, req.UserID, assetType.ID())
	if err != nil {
		return nil, err
	}
	if userWallet == nil {
		return nil, apperrors.NewUserWalletNotFound(req.UserID.String(), assetType.Code())
	}

	treasuryWallet, err := e.wallets.FindSystemWallet(ctx, TreasurySystemCode, assetType.ID())
	if err != nil {
		return nil, err
	}
	if treasuryWallet == nil {
		return nil, apperrors.NewTreasuryNotConfigured(assetType.Code())
	}

	sourceWallet, destinationWallet := treasuryWallet, userWallet
	if txType == entities.TransactionTypeSpend {
		sourceWallet, destinationWallet = userWallet, treasuryWallet
	}

	lockIDs, err := walletlock.SortUniqueWalletIDs(sourceWallet.ID(), destinationWallet.ID())
	if err != nil {
		return nil, err
	}
	lockKeys := walletlock.ToWalletLockKeys(lockIDs)

	token, err := e.walletLock.Acquire(ctx, lockKeys)
	if err != nil {
		return nil, err
	}
	defer e.walletLock.Release(ctx, lockKeys, token)

	result, err := e.runMutationTransaction(ctx, req, txType, assetType, sourceWallet, destinationWallet, lockIDs)
	if err != nil {
		return nil, err
	}

	e.idemCache.Set(ctx, req.IdempotencyKey, cache.CachedResponse{
		Fingerprint: req.RequestFingerprint,
		StatusCode:  result.StatusCode,
		Body:        result.Body,
	}, e.cacheTTL)

	return result, nil
}

func (e *Engine) runMutationTransaction(
	ctx context.Context,
	req MutationRequest,
	txType entities.TransactionType,
	assetType *entities.AssetType,
	sourceWallet, destinationWallet *entities.Wallet,
	lockIDs []uuid.UUID,
) (*MutationResult, error) {
	raw, err := e.uow.ExecuteWithResult(ctx, func(txCtx context.Context) (interface{}, error) {
		transaction, replay, err := e.insertOrReplay(txCtx, req, txType, assetType, sourceWallet, destinationWallet)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}

		lockedWallets, err := e.wallets.LockWallets(txCtx, lockIDs)
		if err != nil {
			return nil, err
		}
		lockedVersions := make([]walletlock.WalletVersion, 0, len(lockedWallets))
		for _, w := range lockedWallets {
			lockedVersions = append(lockedVersions, walletlock.WalletVersion{WalletID: w.ID(), Version: w.Version()})
		}

		sourceBalance, err := e.ledger.AggregateBalance(txCtx, sourceWallet.ID(), assetType.ID())
		if err != nil {
			return nil, err
		}

		if sourceBalance < req.Amount.Units() {
			body, err := composeErrorBody(apperrors.NewInsufficientFunds(assetType.Code(), sourceBalance, req.Amount.Units()))
			if err != nil {
				return nil, err
			}
			transaction.MarkFailed(409, body, string(apperrors.CodeInsufficientFunds))
			if err := e.transactions.UpdateTerminalStatus(txCtx, transaction); err != nil {
				return nil, err
			}
			return &MutationResult{StatusCode: 409, Body: body}, nil
		}

		debit, err := entities.NewLedgerEntry(transaction.ID(), sourceWallet.ID(), assetType.ID(), entities.EntryTypeDebit, req.Amount)
		if err != nil {
			return nil, err
		}
		credit, err := entities.NewLedgerEntry(transaction.ID(), destinationWallet.ID(), assetType.ID(), entities.EntryTypeCredit, req.Amount)
		if err != nil {
			return nil, err
		}
		if err := e.ledger.AppendEntries(txCtx, []*entities.LedgerEntry{debit, credit}); err != nil {
			return nil, err
		}

		updated := make(map[uuid.UUID]struct{}, len(lockedVersions))
		for _, lv := range lockedVersions {
			ok, err := e.wallets.BumpVersion(txCtx, lv.WalletID, lv.Version)
			if err != nil {
				return nil, err
			}
			if ok {
				updated[lv.WalletID] = struct{}{}
			}
		}
		if err := walletlock.AssertOptimisticUpdates(lockedVersions, updated); err != nil {
			return nil, err
		}

		destinationBalance, err := e.ledger.AggregateBalance(txCtx, destinationWallet.ID(), assetType.ID())
		if err != nil {
			return nil, err
		}
		userBalance := destinationBalance
		if txType == entities.TransactionTypeSpend {
			userBalance, err = e.ledger.AggregateBalance(txCtx, sourceWallet.ID(), assetType.ID())
			if err != nil {
				return nil, err
			}
		}

		body, err := composeSuccessBody(transaction, txType, req, assetType, sourceWallet, destinationWallet, userBalance)
		if err != nil {
			return nil, err
		}
		transaction.MarkPosted(200, body)
		if err := e.transactions.UpdateTerminalStatus(txCtx, transaction); err != nil {
			return nil, err
		}

		return &MutationResult{StatusCode: 200, Body: body}, nil
	})
	if err != nil {
		return nil, err
	}

	return raw.(*MutationResult), nil
}

// insertOrReplay implements step 4a of the pipeline: try to insert a
// PROCESSING row; on unique-violation, resolve the existing row by
// idempotency key into either a hard fingerprint-mismatch failure, an
// in-progress conflict, or a replayed terminal result.
func (e *Engine) insertOrReplay(
	ctx context.Context,
	req MutationRequest,
	txType entities.TransactionType,
	assetType *entities.AssetType,
	sourceWallet, destinationWallet *entities.Wallet,
) (*entities.Transaction, *MutationResult, error) {
	transaction, err := entities.NewTransaction(
		req.IdempotencyKey, req.RequestFingerprint, txType, req.Amount,
		assetType.ID(), sourceWallet.ID(), destinationWallet.ID(),
	)
	if err != nil {
		return nil, nil, err
	}

	err = e.transactions.InsertProcessing(ctx, transaction)
	if err == nil {
		return transaction, nil, nil
	}

	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != apperrors.CodeIdempotencyKeyReused {
		return nil, nil, err
	}

	existing, findErr := e.transactions.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if findErr != nil {
		return nil, nil, findErr
	}

	if existing.RequestFingerprint() != req.RequestFingerprint {
		return nil, nil, apperrors.NewIdempotencyKeyReused()
	}

	if existing.IsProcessing() {
		return nil, nil, apperrors.NewRequestInProgress()
	}

	statusCode := 200
	if existing.ResponseCode() != nil {
		statusCode = *existing.ResponseCode()
	}
	body := ""
	if existing.ResponseBody() != nil {
		body = *existing.ResponseBody()
	}

	return nil, &MutationResult{StatusCode: statusCode, Body: body, Replayed: true}, nil
}

func composeSuccessBody(
	transaction *entities.Transaction,
	txType entities.TransactionType,
	req MutationRequest,
	assetType *entities.AssetType,
	sourceWallet, destinationWallet *entities.Wallet,
	userBalance int64,
) (string, error) {
	payload := SuccessPayload{
		TransactionID:  transaction.ID().String(),
		IdempotencyKey: req.IdempotencyKey,
		Operation:      operationName(txType),
		UserID:         req.UserID.String(),
		AssetCode:      assetType.Code(),
		Amount:         req.Amount.String(),
		Balance:        valueobjects.FormatBalance(userBalance),
		FromWalletID:   sourceWallet.ID().String(),
		ToWalletID:     destinationWallet.ID().String(),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal success payload: %w", err)
	}
	return string(raw), nil
}

func composeErrorBody(appErr *apperrors.AppError) (string, error) {
	envelope := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		},
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshal error payload: %w", err)
	}
	return string(raw), nil
}

func operationName(txType entities.TransactionType) string {
	switch txType {
	case entities.TransactionTypeTopup:
		return "topup"
	case entities.TransactionTypeBonus:
		return "bonus"
	case entities.TransactionTypeSpend:
		return "spend"
	default:
		return ""
	}
}

// BalanceEntry is one asset-type balance line in a GetBalance response.
type BalanceEntry struct {
	AssetCode string `json:"assetCode"`
	AssetName string `json:"assetName"`
	Balance   string `json:"balance"`
}

// GetBalance returns a user's balance across every asset they hold a
// wallet for, or a single asset if assetCode is non-nil. The user must
// exist; after an optional asset-code filter is applied, at least one
// wallet must remain or this returns ASSET_WALLET_NOT_FOUND.
func (e *Engine) GetBalance(ctx context.Context, userID uuid.UUID, assetCode *string) ([]BalanceEntry, error) {
	if _, err := e.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	balances, err := e.ledger.ListUserBalances(ctx, userID)
	if err != nil {
		return nil, err
	}

	var filter string
	if assetCode != nil {
		filter = strings.ToUpper(strings.TrimSpace(*assetCode))
	}

	entries := make([]BalanceEntry, 0, len(balances))
	for _, b := range balances {
		if filter != "" && b.AssetCode != filter {
			continue
		}
		entries = append(entries, BalanceEntry{
			AssetCode: b.AssetCode,
			AssetName: b.AssetName,
			Balance:   valueobjects.FormatBalance(b.Balance),
		})
	}

	if len(entries) == 0 {
		if filter != "" {
			return nil, apperrors.NewAssetWalletNotFound(filter)
		}
		return nil, apperrors.NewAssetWalletNotFound("")
	}

	return entries, nil
}
