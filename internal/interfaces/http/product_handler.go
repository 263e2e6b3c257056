package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-sync/internal/application/catalog"
	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// ProductHandler maneja el catálogo de productos.
type ProductHandler struct {
	uc *catalog.UseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.UseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// Create da de alta un producto. El stock inicial, si viene, se siembra vía
// ledger para que quede en el historial.
// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	product, err := h.uc.CreateProduct(c.Context(), catalog.CreateProductInput{
		Name:         in.Name,
		Category:     in.Category,
		Price:        in.Price,
		Cost:         in.Cost,
		InitialStock: in.InitialStock,
		VariantID:    in.VariantID,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(productToResponse(product))
}

// GetByID devuelve un producto con el desglose de stock por variante.
// GET /api/products/:id
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	product, records, err := h.uc.GetProduct(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	out := dto.ProductDetailResponse{ProductResponse: productToResponse(product)}
	for _, rec := range records {
		out.Variants = append(out.Variants, dto.VariantStockResponse{
			VariantID: rec.VariantID,
			Stock:     rec.Stock,
		})
	}
	return c.JSON(out)
}

// List lista el catálogo paginado.
// GET /api/products?limit=&offset=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.uc.ListProducts(c.Context(), c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return errorResponse(c, err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productToResponse(p))
	}
	return c.JSON(out)
}

func productToResponse(p *entity.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Cost:      p.Cost,
		Stock:     p.Stock,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
