// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// SOLID Principles:
// - SRP: UnitOfWork отвечает только за границы транзакций
// - DIP: Application не знает о деталях БД транзакций
//
// Pattern: Unit of Work
// - Обеспечивает атомарность операций
// - Один UnitOfWork = одна БД-транзакция
// - Автоматический rollback при ошибке
package ports

import "context"

// UnitOfWork определяет контракт для управления транзакциями.
//
// Паттерн Unit of Work решает проблему:
// "Как гарантировать, что несколько операций выполнятся атомарно?"
//
// Пример использования:
//   err := uow.Execute(ctx, func(ctx context.Context) error {
//       user, _ := userRepo.FindByID(ctx, userID)
//       wallet, _ := entities.NewUserWallet(user.ID(), assetTypeID)
//       return walletRepo.Create(ctx, wallet)
//   })
//   // Если любая операция вернёт error - automatic rollback
//   // Если все успешны - automatic commit
type UnitOfWork interface {
	// Execute выполняет функцию внутри транзакции.
	//
	// Поведение:
	// - Начинает транзакцию
	// - Выполняет fn
	// - Если fn возвращает error: ROLLBACK
	// - Если fn возвращает nil: COMMIT
	//
	// Context:
	// Переданный context содержит транзакцию.
	// Все операции внутри fn должны использовать этот context!
	//
	// Example:
	//   uow.Execute(ctx, func(txCtx context.Context) error {
	//       // Используем txCtx, не ctx!
	//       wallets, err := walletRepo.LockWallets(txCtx, walletIDs)
	//       if err != nil {
	//           return err // Автоматический rollback
	//       }
	//
	//       _, err = walletRepo.BumpVersion(txCtx, wallets[0].ID(), wallets[0].Version())
	//       return err
	//   })
	Execute(ctx context.Context, fn func(context.Context) error) error

	// ExecuteWithResult аналогичен Execute, но возвращает результат.
	// Полезно когда нужно вернуть созданную entity.
	//
	// Example:
	//   raw, err := uow.ExecuteWithResult(ctx, func(txCtx context.Context) (interface{}, error) {
	//       wallet, err := entities.NewUserWallet(userID, assetTypeID)
	//       if err != nil {
	//           return nil, err
	//       }
	//       return wallet, walletRepo.Create(txCtx, wallet)
	//   })
	//   wallet := raw.(*entities.Wallet)
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error)
}
