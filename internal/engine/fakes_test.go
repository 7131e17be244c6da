package engine_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/entities"
)

// fakeUnitOfWork runs fn directly against the same in-memory stores,
// serialized by a mutex to stand in for the isolation a single Postgres
// transaction would otherwise provide.
type fakeUnitOfWork struct {
	mu sync.Mutex
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(ctx)
}

func (u *fakeUnitOfWork) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (r *fakeUserRepo) Save(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID()] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewUserNotFound(id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, apperrors.NewUserNotFound(email)
}

type fakeAssetTypeRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*entities.AssetType
	byCode map[string]*entities.AssetType
}

func newFakeAssetTypeRepo() *fakeAssetTypeRepo {
	return &fakeAssetTypeRepo{
		byID:   make(map[uuid.UUID]*entities.AssetType),
		byCode: make(map[string]*entities.AssetType),
	}
}

func (r *fakeAssetTypeRepo) Save(_ context.Context, at *entities.AssetType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[at.ID()] = at
	r.byCode[at.Code()] = at
	return nil
}

func (r *fakeAssetTypeRepo) FindByCode(_ context.Context, code string) (*entities.AssetType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.byCode[code]
	if !ok {
		return nil, apperrors.NewAssetTypeNotFound(code)
	}
	return at, nil
}

func (r *fakeAssetTypeRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.AssetType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewAssetTypeNotFound(id.String())
	}
	return at, nil
}

type fakeWalletRepo struct {
	mu                sync.Mutex
	wallets           map[uuid.UUID]*entities.Wallet
	forceBumpFailure map[uuid.UUID]bool
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		wallets:          make(map[uuid.UUID]*entities.Wallet),
		forceBumpFailure: make(map[uuid.UUID]bool),
	}
}

// failNextBump makes the next BumpVersion call for walletID report no rows
// affected, simulating another transaction having raced in between the row
// lock being taken and this conditional update being issued.
func (r *fakeWalletRepo) failNextBump(walletID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forceBumpFailure[walletID] = true
}

func (r *fakeWalletRepo) Create(_ context.Context, w *entities.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID()] = w
	return nil
}

func (r *fakeWalletRepo) FindUserWallet(_ context.Context, userID, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.IsUserOwned() && w.UserID() != nil && *w.UserID() == userID && w.AssetTypeID() == assetTypeID {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWalletRepo) FindSystemWallet(_ context.Context, systemCode string, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.IsSystemOwned() && w.SystemCode() == systemCode && w.AssetTypeID() == assetTypeID {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWalletRepo) LockWallets(_ context.Context, walletIDs []uuid.UUID) ([]*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Wallet, 0, len(walletIDs))
	for _, id := range walletIDs {
		w, ok := r.wallets[id]
		if !ok {
			return nil, apperrors.NewLockedWalletMismatch()
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *fakeWalletRepo) BumpVersion(_ context.Context, walletID uuid.UUID, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceBumpFailure[walletID] {
		delete(r.forceBumpFailure, walletID)
		return false, nil
	}
	w, ok := r.wallets[walletID]
	if !ok {
		return false, nil
	}
	if w.Version() != expectedVersion {
		return false, nil
	}
	w.BumpVersion()
	return true, nil
}

type fakeTransactionRepo struct {
	mu    sync.Mutex
	byKey map[string]*entities.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byKey: make(map[string]*entities.Transaction)}
}

func (r *fakeTransactionRepo) InsertProcessing(_ context.Context, tx *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[tx.IdempotencyKey()]; exists {
		return apperrors.NewIdempotencyKeyReused()
	}
	r.byKey[tx.IdempotencyKey()] = tx
	return nil
}

func (r *fakeTransactionRepo) FindByIdempotencyKey(_ context.Context, idempotencyKey string) (*entities.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byKey[idempotencyKey]
	if !ok {
		return nil, apperrors.NewIdempotencyStateNotFound()
	}
	return tx, nil
}

func (r *fakeTransactionRepo) UpdateTerminalStatus(_ context.Context, tx *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[tx.IdempotencyKey()] = tx
	return nil
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []*entities.LedgerEntry
	wallets *fakeWalletRepo
	assets  *fakeAssetTypeRepo
}

func newFakeLedgerRepo(wallets *fakeWalletRepo, assets *fakeAssetTypeRepo) *fakeLedgerRepo {
	return &fakeLedgerRepo{wallets: wallets, assets: assets}
}

func (r *fakeLedgerRepo) AppendEntries(_ context.Context, entries []*entities.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeLedgerRepo) AggregateBalance(_ context.Context, walletID, assetTypeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var balance int64
	for _, e := range r.entries {
		if e.WalletID() == walletID && e.AssetTypeID() == assetTypeID {
			balance += e.SignedUnits()
		}
	}
	return balance, nil
}

func (r *fakeLedgerRepo) ListUserBalances(_ context.Context, userID uuid.UUID) ([]ports.WalletBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wallets.mu.Lock()
	var userWallets []*entities.Wallet
	for _, w := range r.wallets.wallets {
		if w.IsUserOwned() && w.UserID() != nil && *w.UserID() == userID {
			userWallets = append(userWallets, w)
		}
	}
	r.wallets.mu.Unlock()

	out := make([]ports.WalletBalance, 0, len(userWallets))
	for _, w := range userWallets {
		var balance int64
		for _, e := range r.entries {
			if e.WalletID() == w.ID() {
				balance += e.SignedUnits()
			}
		}
		r.assets.mu.Lock()
		at := r.assets.byID[w.AssetTypeID()]
		r.assets.mu.Unlock()
		code, name := "", ""
		if at != nil {
			code = at.Code()
			name = at.DisplayName()
		}
		out = append(out, ports.WalletBalance{WalletID: w.ID(), AssetCode: code, AssetName: name, Balance: balance})
	}

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].AssetCode < out[i].AssetCode {
				out[i], out[j] = out[j], out[i]
			}
		}
	}

	return out, nil
}
