package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/sales"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// SaleHandler maneja checkout y devoluciones.
type SaleHandler struct {
	uc *sales.UseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.UseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Create registra una venta descontando el stock de cada línea; si alguna línea
// no tiene stock, la venta completa se rechaza con 409.
// POST /api/sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := sales.CreateSaleInput{Note: in.Note}
	for _, item := range in.Items {
		input.Items = append(input.Items, sales.SaleLineInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	sale, err := h.uc.CreateSale(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saleToResponse(sale))
}

// Reverse procesa la devolución de una venta: restituye el stock y marca la
// venta como reversed (la venta original se conserva).
// POST /api/sales/:id/return
func (h *SaleHandler) Reverse(c *fiber.Ctx) error {
	sale, err := h.uc.ReverseSale(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(saleToResponse(sale))
}

// GetByID devuelve una venta con sus líneas.
// GET /api/sales/:id
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	sale, err := h.uc.GetSale(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(saleToResponse(sale))
}

func saleToResponse(sale *entity.Sale) dto.SaleResponse {
	out := dto.SaleResponse{
		ID:         sale.ID,
		Status:     sale.Status,
		Total:      sale.Total,
		Note:       sale.Note,
		CreatedAt:  sale.CreatedAt,
		ReversedAt: sale.ReversedAt,
	}
	for _, item := range sale.Items {
		out.Items = append(out.Items, dto.SaleItemResponse{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}
