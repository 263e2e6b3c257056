package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-sync/internal/application/dashboard"
)

// DashboardHandler expone el resumen de inventario mantenido en caliente por
// las suscripciones de cambios.
type DashboardHandler struct {
	uc *dashboard.UseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *dashboard.UseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// Summary devuelve el último resumen calculado.
// GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	return c.JSON(h.uc.Summary())
}
