package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldarmv/listora/internal/pkg/billing"
)

func performErrorRequest(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()

	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return renderBillingError(c, err)
	})

	resp, reqErr := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, reqErr)
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestRenderBillingError_KindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "validation maps to 400",
			err:        billing.NewError(billing.KindValidation, billing.CodeInvalidRole, "unknown role"),
			wantStatus: fiber.StatusBadRequest,
			wantError:  billing.CodeInvalidRole,
		},
		{
			name:       "eligibility maps to 403",
			err:        billing.NewError(billing.KindEligibility, billing.CodeNotVerified, "not verified"),
			wantStatus: fiber.StatusForbidden,
			wantError:  billing.CodeNotVerified,
		},
		{
			name:       "conflict maps to 409",
			err:        billing.NewError(billing.KindConflict, billing.CodeActivationConflict, "in progress"),
			wantStatus: fiber.StatusConflict,
			wantError:  billing.CodeActivationConflict,
		},
		{
			name:       "not found maps to 404",
			err:        billing.NewError(billing.KindNotFound, billing.CodePlanNotFound, "plan not found"),
			wantStatus: fiber.StatusNotFound,
			wantError:  billing.CodePlanNotFound,
		},
		{
			name:       "external maps to 502",
			err:        billing.NewError(billing.KindExternal, billing.CodeProcessorFailed, "processor down"),
			wantStatus: fiber.StatusBadGateway,
			wantError:  billing.CodeProcessorFailed,
		},
		{
			name:       "foreign error maps to opaque 500",
			err:        errors.New("sql: connection reset"),
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "internal_server_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := performErrorRequest(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestRenderBillingError_RequiresPayment(t *testing.T) {
	err := billing.NewError(billing.KindValidation, billing.CodeRequiresPayment, "paid plan")

	status, body := performErrorRequest(t, err)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, billing.CodeRequiresPayment, body["error"])
	assert.Equal(t, true, body["requires_payment"])
}

func TestRenderBillingError_WrappedErrorKeepsCode(t *testing.T) {
	inner := billing.NewError(billing.KindEligibility, billing.CodeRoleDisabled, "role disabled")
	wrapped := errors.Join(errors.New("context"), inner)

	status, body := performErrorRequest(t, wrapped)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, billing.CodeRoleDisabled, body["error"])
}
