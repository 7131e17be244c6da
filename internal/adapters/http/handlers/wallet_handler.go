// Package handlers содержит HTTP handlers для REST API.
//
// Handler - это Adapter в терминах Clean Architecture:
// - Принимает HTTP запрос
// - Преобразует в запрос движка
// - Вызывает Engine
// - Передаёт результат клиенту как есть (движок уже сериализовал тело)
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wallethub/ledgercore/internal/adapters/http/common"
	"github.com/wallethub/ledgercore/internal/adapters/http/middleware"
	"github.com/wallethub/ledgercore/internal/domain/apperrors"
	"github.com/wallethub/ledgercore/internal/domain/valueobjects"
	"github.com/wallethub/ledgercore/internal/engine"
	"github.com/wallethub/ledgercore/internal/fingerprint"
)

// MutationEngine is the subset of *engine.Engine a WalletHandler drives.
// Declared here (not in engine) so the handler depends on an interface it
// owns, following this codebase's use-case-interface idiom.
type MutationEngine interface {
	Topup(ctx context.Context, req engine.MutationRequest) (*engine.MutationResult, error)
	Bonus(ctx context.Context, req engine.MutationRequest) (*engine.MutationResult, error)
	Spend(ctx context.Context, req engine.MutationRequest) (*engine.MutationResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID, assetCode *string) ([]engine.BalanceEntry, error)
}

// WalletHandler translates HTTP mutation/balance requests into engine calls.
type WalletHandler struct {
	engine MutationEngine
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(e MutationEngine) *WalletHandler {
	return &WalletHandler{engine: e}
}

// AmountInput accepts the amount field as either a JSON string or a bare
// JSON number literal, keeping the raw text for valueobjects.ParseAmount so
// the fingerprint sees exactly what the client sent.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	*a = AmountInput(trimmed)
	return nil
}

// mutationRequestBody is the wire shape of the topup/bonus/spend bodies.
type mutationRequestBody struct {
	UserID    uuid.UUID   `json:"userId"`
	AssetCode string      `json:"assetCode"`
	Amount    AmountInput `json:"amount"`
}

// Topup handles POST /wallet/topup.
func (h *WalletHandler) Topup(c *gin.Context) { h.mutate(c, "TOPUP", h.engine.Topup) }

// Bonus handles POST /wallet/bonus.
func (h *WalletHandler) Bonus(c *gin.Context) { h.mutate(c, "BONUS", h.engine.Bonus) }

// Spend handles POST /wallet/spend.
func (h *WalletHandler) Spend(c *gin.Context) { h.mutate(c, "SPEND", h.engine.Spend) }

type mutationFunc func(ctx context.Context, req engine.MutationRequest) (*engine.MutationResult, error)

func (h *WalletHandler) mutate(c *gin.Context, txType string, fn mutationFunc) {
	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey == "" {
		common.RenderAppError(c, apperrors.NewIdempotencyKeyMissing())
		return
	}

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		common.RenderValidation(c, "could not read request body", nil)
		return
	}

	var body mutationRequestBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		common.RenderValidation(c, "invalid JSON body: "+err.Error(), nil)
		return
	}
	if body.UserID == uuid.Nil {
		common.RenderValidation(c, "userId is required", map[string]interface{}{"field": "userId"})
		return
	}
	if body.AssetCode == "" || len(body.AssetCode) > 50 {
		common.RenderValidation(c, "assetCode is required and must be at most 50 characters", map[string]interface{}{"field": "assetCode"})
		return
	}
	amount, err := valueobjects.ParseAmount(string(body.Amount))
	if err != nil {
		common.RenderValidation(c, err.Error(), map[string]interface{}{"field": "amount"})
		return
	}

	fp, err := fingerprint.Compute(c.Request.Method, c.Request.URL.Path, rawBody)
	if err != nil {
		common.RenderValidation(c, "could not fingerprint request", nil)
		return
	}

	result, err := fn(c.Request.Context(), engine.MutationRequest{
		UserID:             body.UserID,
		AssetCode:          body.AssetCode,
		Amount:             amount,
		IdempotencyKey:     idempotencyKey,
		RequestFingerprint: fp,
	})
	if err != nil {
		middleware.RecordTransaction(txType, "FAILED", body.AssetCode, amount.Units())
		common.RenderError(c, err)
		return
	}

	if !result.Replayed {
		status := "POSTED"
		if result.StatusCode >= 400 {
			status = "FAILED"
		}
		middleware.RecordTransaction(txType, status, body.AssetCode, amount.Units())
	}

	if result.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	common.RenderJSONBody(c, result.StatusCode, result.Body)
}

// balanceResponse is the wire shape of GET /wallet/:userId/balance.
type balanceResponse struct {
	UserID   string                 `json:"userId"`
	Balances []engine.BalanceEntry `json:"balances"`
}

// GetBalance handles GET /wallet/:userId/balance?assetCode=CODE.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		common.RenderValidation(c, "userId path parameter must be a UUID", map[string]interface{}{"field": "userId"})
		return
	}

	var assetCode *string
	if raw := c.Query("assetCode"); raw != "" {
		assetCode = &raw
	}

	balances, err := h.engine.GetBalance(c.Request.Context(), userID, assetCode)
	if err != nil {
		common.RenderError(c, err)
		return
	}

	common.RenderJSON(c, common.StatusOK, balanceResponse{
		UserID:   userID.String(),
		Balances: balances,
	})
}

// RegisterMutationRoutes регистрирует маршруты мутации (topup/bonus/spend),
// которые вызывающая сторона обычно оборачивает более строгим rate limit.
func (h *WalletHandler) RegisterMutationRoutes(router gin.IRoutes) {
	router.POST("/wallet/topup", h.Topup)
	router.POST("/wallet/bonus", h.Bonus)
	router.POST("/wallet/spend", h.Spend)
}

// RegisterQueryRoutes регистрирует read-only маршруты (баланс).
func (h *WalletHandler) RegisterQueryRoutes(router gin.IRoutes) {
	router.GET("/wallet/:userId/balance", h.GetBalance)
}
