package httpapi

import "net/http"

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	playerID, err := pathInt64(r, "playerID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.players.GetPlayer(ctx, playerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(item))
}
