package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karrelday/TaraLaba/internal/services/receipt"
	"go.uber.org/zap"
)

func (h *Handler) GetReceipt(res http.ResponseWriter, req *http.Request) {
	actor, ok := h.actor(res, req)
	if !ok {
		return
	}

	order, err := h.flow.GetOrder(req.Context(), actor, chi.URLParam(req, "orderId"))
	if err != nil {
		writeFlowError(res, err)
		return
	}

	orderReceipt := receipt.Build(order, h.now())

	var document bytes.Buffer
	if err := receipt.Render(&document, orderReceipt); err != nil {
		zap.L().Info("error render receipt", zap.String("orderID", order.ID), zap.Error(err))

		writeMessage(res, http.StatusInternalServerError, "Error generating receipt")
		return
	}

	res.Header().Set("Content-Type", "application/pdf")
	res.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", orderReceipt.ReceiptID))
	res.WriteHeader(http.StatusOK)

	if _, err := document.WriteTo(res); err != nil {
		zap.L().Info("error write receipt", zap.Error(err))
	}
}
