package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fc-integration/inventory/internal/services"
	"github.com/fc-integration/inventory/types"
)

// LogHandler serves the audit log.
type LogHandler struct {
	audit *services.AuditService
}

func NewLogHandler(audit *services.AuditService) *LogHandler {
	return &LogHandler{audit: audit}
}

func LogRouter(r chi.Router, handler *LogHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/update-log", handler.Append)
		r.Get("/latest-logs", handler.Latest)
	})
}

func (h *LogHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req types.AppendLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.audit.Append(r.Context(), types.LogEntry{
		StockID:         req.StockID,
		UserName:        req.UserName,
		ItemDescription: req.ItemDescription,
		Action:          req.Action,
		QuantityBefore:  req.QuantityBefore,
		QuantityAfter:   req.QuantityAfter,
		Commentaire:     req.Commentaire,
	})
	if err != nil {
		writeServiceError(w, err, "failed to append log")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *LogHandler) Latest(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Latest(r.Context(), strings.TrimSpace(r.URL.Query().Get("user_name")))
	if err != nil {
		writeServiceError(w, err, "failed to fetch logs")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
