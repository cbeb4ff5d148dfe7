package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/marketlock"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/player"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/platform/logging"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

const maxRequestBodyBytes = 64 << 10

type SettlementRunner interface {
	Run(ctx context.Context, trigger settlement.Trigger) (settlement.Run, error)
}

type MarketLockManager interface {
	Refresh(ctx context.Context) (usecase.MarketLockRefresh, error)
	Status(ctx context.Context) (marketlock.Status, error)
}

type TradeLedger interface {
	ApplyTrades(ctx context.Context, in trade.Input) (trade.Result, error)
	AddPlayer(ctx context.Context, ownerUserID string, teamID, playerID int64) (trade.Result, error)
	DropPlayer(ctx context.Context, ownerUserID string, teamID, playerID int64) (trade.Result, error)
}

type PlayerCatalog interface {
	GetPlayer(ctx context.Context, playerID int64) (player.Player, error)
}

type Handler struct {
	settlement SettlementRunner
	marketLock MarketLockManager
	trades     TradeLedger
	players    PlayerCatalog
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(
	settlementRunner SettlementRunner,
	marketLock MarketLockManager,
	trades TradeLedger,
	players PlayerCatalog,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		settlement: settlementRunner,
		marketLock: marketLock,
		trades:     trades,
		players:    players,
		logger:     logger.With("component", "httpapi"),
		validator:  validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeJSON(ctx context.Context, r *http.Request, target any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(raw) > maxRequestBodyBytes {
		return fmt.Errorf("%w: request body too large", usecase.ErrInvalidInput)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
	}

	if err := sonic.ConfigStd.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, target)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}
	return value, nil
}
