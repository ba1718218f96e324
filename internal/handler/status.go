package handler

import (
	"net/http"

	"github.com/karrelday/TaraLaba/internal/models"
	"go.uber.org/zap"
)

const banner = "Laundry Management API connected to PostgreSQL"

func (h *Handler) Root(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusOK)

	if _, err := res.Write([]byte(banner)); err != nil {
		zap.L().Info("error write banner", zap.Error(err))
	}
}

func (h *Handler) DBStatus(res http.ResponseWriter, req *http.Request) {
	if err := h.storage.Ping(req.Context()); err != nil {
		zap.L().Info("database ping failed", zap.Error(err))

		writeJSON(res, http.StatusInternalServerError, models.DBStatusResponse{
			Status:  "error",
			Message: err.Error(),
		})
		return
	}

	writeJSON(res, http.StatusOK, models.DBStatusResponse{Status: "connected"})
}
