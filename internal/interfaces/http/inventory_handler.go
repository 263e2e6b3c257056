package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
)

// InventoryHandler maneja ajustes manuales de stock y la consulta de historial.
type InventoryHandler struct {
	ledger  *ledger.Ledger
	history *ledger.History
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ldg *ledger.Ledger, history *ledger.History) *InventoryHandler {
	return &InventoryHandler{ledger: ldg, history: history}
}

// Adjust registra una corrección manual de stock (delta con signo).
// POST /api/inventory/adjustments
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	stock, err := h.ledger.Adjust(c.Context(), in.ProductID, in.VariantID, in.Delta, in.Reason)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.StockResponse{
		ProductID: in.ProductID,
		VariantID: in.VariantID,
		Stock:     stock,
	})
}

// History lista el historial de stock de un producto, descendente por fecha.
// Query params: variant_id (opcional), limit.
// GET /api/inventory/:productID/history
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	productID := c.Params("productID")
	variantID := c.Query("variant_id")
	limit := c.QueryInt("limit", 50)

	entries, err := h.history.ByProduct(c.Context(), productID, variantID, limit)
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryEntryResponse{
			ID:            e.ID,
			ProductID:     e.ProductID,
			VariantID:     e.VariantID,
			PreviousStock: e.PreviousStock,
			NewStock:      e.NewStock,
			Delta:         e.Delta,
			Kind:          e.Kind,
			ReferenceID:   e.ReferenceID,
			Note:          e.Note,
			CreatedAt:     e.CreatedAt,
		})
	}
	return c.JSON(out)
}
