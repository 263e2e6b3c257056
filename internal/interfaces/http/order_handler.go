package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/orders"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// OrderHandler maneja órdenes de compra y su recepción.
type OrderHandler struct {
	uc *orders.UseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *orders.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create registra una orden de compra pendiente (no toca el stock).
// POST /api/orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := orders.CreateOrderInput{Supplier: in.Supplier}
	for _, item := range in.Items {
		input.Items = append(input.Items, orders.OrderLineInput{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	order, err := h.uc.CreateOrder(c.Context(), input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(orderToResponse(order))
}

// Receive registra la recepción de la orden: suma stock por línea y actualiza
// el costo promedio del producto.
// POST /api/orders/:id/receive
func (h *OrderHandler) Receive(c *fiber.Ctx) error {
	order, err := h.uc.ReceiveOrder(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(orderToResponse(order))
}

// GetByID devuelve una orden con sus líneas.
// GET /api/orders/:id
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(orderToResponse(order))
}

func orderToResponse(order *entity.Order) dto.OrderResponse {
	out := dto.OrderResponse{
		ID:         order.ID,
		Supplier:   order.Supplier,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
		ReceivedAt: order.ReceivedAt,
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, dto.OrderItemResponse{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
	}
	return out
}
