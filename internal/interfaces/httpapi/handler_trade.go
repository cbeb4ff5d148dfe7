package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/account"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/trade"
	"github.com/riskibarqy/fantasy-settlement/internal/usecase"
)

type tradeRequest struct {
	Add  []int64 `json:"add" validate:"omitempty,max=15,dive,gt=0"`
	Drop []int64 `json:"drop" validate:"omitempty,max=15,dive,gt=0"`
}

type addRosterPlayerRequest struct {
	PlayerID int64 `json:"playerId" validate:"required,gt=0"`
}

func (h *Handler) ApplyTrades(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyTrades")
	defer span.End()

	principal, teamID, err := h.tradeCaller(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req tradeRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.trades.ApplyTrades(ctx, trade.Input{
		OwnerUserID: principal.UserID,
		TeamID:      teamID,
		Add:         req.Add,
		Drop:        req.Drop,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeResultToDTO(result))
}

func (h *Handler) AddRosterPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddRosterPlayer")
	defer span.End()

	principal, teamID, err := h.tradeCaller(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req addRosterPlayerRequest
	if err := h.decodeJSON(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.trades.AddPlayer(ctx, principal.UserID, teamID, req.PlayerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tradeResultToDTO(result))
}

func (h *Handler) DropRosterPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DropRosterPlayer")
	defer span.End()

	principal, teamID, err := h.tradeCaller(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	playerID, err := pathInt64(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.trades.DropPlayer(ctx, principal.UserID, teamID, playerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tradeResultToDTO(result))
}

func (h *Handler) tradeCaller(ctx context.Context, r *http.Request) (account.Principal, int64, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return account.Principal{}, 0, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	teamID, err := pathInt64(r, "teamID")
	if err != nil {
		return account.Principal{}, 0, err
	}
	return principal, teamID, nil
}
