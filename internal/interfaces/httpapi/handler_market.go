package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
)

func (h *Handler) GetMarketLock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMarketLock")
	defer span.End()

	status, err := h.marketLock.Status(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "read market lock failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, marketLockStatusToDTO(status))
}

func (h *Handler) RunSettlementCron(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettlementCron")
	defer span.End()

	run, err := h.settlement.Run(ctx, settlement.TriggerCron)
	if err != nil {
		h.logger.WarnContext(ctx, "settlement cron failed", "run_id", run.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settlementRunToDTO(run))
}

func (h *Handler) RefreshMarketLockCron(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshMarketLockCron")
	defer span.End()

	refreshed, err := h.marketLock.Refresh(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "market lock cron failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, marketLockRefreshToDTO(refreshed))
}
