package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/domain"
	"github.com/jhoicas/pos-sync/internal/domain/repository"
	apphttp "github.com/jhoicas/pos-sync/internal/interfaces/http"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

// errRunner transacción que siempre falla con el error programado. Sirve para
// verificar el mapeo de errores de dominio a códigos HTTP a través del handler.
type errRunner struct{ err error }

func (f *errRunner) Run(ctx context.Context, fn func(
	recordRepo repository.InventoryRecordRepository,
	historyRepo repository.InventoryHistoryRepository,
	productRepo repository.ProductRepository,
	publisher realtime.Publisher,
) error) error {
	return f.err
}

func buildApp(runnerErr error) *fiber.App {
	ldg := ledger.New(&errRunner{err: runnerErr}, logger.Nop(), 3)
	app := fiber.New()
	app.Post("/api/inventory/adjustments", apphttp.NewInventoryHandler(ldg, nil).Adjust)
	return app
}

func doAdjust(t *testing.T, app *fiber.App, body string) (*http.Response, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/inventory/adjustments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out dto.ErrorResponse
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestMapeoDeErroresDeDominio(t *testing.T) {
	validBody := `{"product_id":"p1","delta":-2,"reason":"rotura"}`

	casos := []struct {
		name       string
		runnerErr  error
		body       string
		wantStatus int
		wantCode   string
	}{
		{"entrada inválida", nil, `{"product_id":"p1","delta":0}`, http.StatusBadRequest, "VALIDATION"},
		{"no encontrado", domain.ErrNotFound, validBody, http.StatusNotFound, "NOT_FOUND"},
		{"stock insuficiente", fmt.Errorf("%w: producto p1", domain.ErrInsufficientStock), validBody, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"conflicto de escritura", domain.ErrConcurrentModification, validBody, http.StatusConflict, "WRITE_CONFLICT"},
		{"almacenamiento caído", fmt.Errorf("update stock: %w", domain.ErrTransientStorage), validBody, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{"error inesperado", errors.New("se rompió algo"), validBody, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, c := range casos {
		t.Run(c.name, func(t *testing.T) {
			app := buildApp(c.runnerErr)
			resp, out := doAdjust(t, app, c.body)
			assert.Equal(t, c.wantStatus, resp.StatusCode)
			assert.Equal(t, c.wantCode, out.Code)
		})
	}
}

func TestAdjustCuerpoInvalido(t *testing.T) {
	app := buildApp(nil)
	resp, out := doAdjust(t, app, `{esto no es json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", out.Code)
}
