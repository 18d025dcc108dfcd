package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caravalia/reservas/config"
	"github.com/caravalia/reservas/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakeHealthClient struct {
	healthpb.HealthClient
	status healthpb.HealthCheckResponse_ServingStatus
}

func (f fakeHealthClient) Check(context.Context, *healthpb.HealthCheckRequest, ...grpc.CallOption) (*healthpb.HealthCheckResponse, error) {
	return &healthpb.HealthCheckResponse{Status: f.status}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	swaggerDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(swaggerDir, "reservations.swagger.json"), []byte(`{"swagger":"2.0"}`), 0o644))

	cfg, err := config.Parse([]byte(`
http:
  swagger_dir: "` + swaggerDir + `"
storage:
  backend: memory
kafka:
  brokers: []
locale:
  timezone: UTC
business:
  models:
    - name: "294TL"
      plate: "9243MBV"
`))
	require.NoError(t, err)
	return cfg
}

func newTestRouter(t *testing.T, status healthpb.HealthCheckResponse_ServingStatus) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	services, err := NewServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	router, err := NewRouter(cfg, services.Handlers(), fakeHealthClient{status: status})
	require.NoError(t, err)
	return router
}

func do(t *testing.T, router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_WizardFlow(t *testing.T) {
	router := newTestRouter(t, healthpb.HealthCheckResponse_SERVING)

	w := do(t, router, "GET", "/api/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "9243MBV")

	w = do(t, router, "GET", "/api/wizard/294TL/number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"number":"1"`)

	w = do(t, router, "POST", "/api/wizard/294TL/number", map[string]string{"reservationNumber": "17"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "POST", "/api/wizard/294TL/details", map[string]string{
		"reservationNumber": "17",
		"entryDate":         "2024-06-01",
		"returnDate":        "2024-06-05",
		"entryTime":         "09:00",
		"returnTime":        "19:00",
		"dailyRate":         "150",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, "POST", "/api/wizard/294TL/customer", map[string]string{
		"fullName":   "ana garcía",
		"nationalId": "12345678z",
		"phone":      "600111222",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, "GET", "/api/wizard/294TL/confirmation?number=17", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var conf struct {
		Pricing struct {
			Days   int     `json:"totalDays"`
			Total  float64 `json:"totalAmount"`
			Signal float64 `json:"depositAmount"`
		} `json:"pricing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conf))
	assert.Equal(t, 5, conf.Pricing.Days)
	assert.Equal(t, 750.0, conf.Pricing.Total)
	assert.Equal(t, 230.0, conf.Pricing.Signal)

	w = do(t, router, "POST", "/api/wizard/294TL/send", map[string]string{"reservationNumber": "17", "paymentMethod": "bizum"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Reservation_17_ANA_GARCA_1_of_junio_2024.html")
	id := w.Header().Get("X-Reservation-Id")
	require.NotEmpty(t, id)

	w = do(t, router, "GET", "/api/wizard/294TL/number", nil)
	assert.Contains(t, w.Body.String(), `"number":"18"`)

	w = do(t, router, "GET", "/api/reservations?q=garc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.CompletedReservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	w = do(t, router, "POST", "/api/reservations/"+id+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "calendar.google.com")

	w = do(t, router, "GET", "/api/reservations/"+id+"/document", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "GET", "/api/reservations/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "DELETE", "/api/reservations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, "GET", "/api/reservations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ConfirmationWithoutDrafts(t *testing.T) {
	router := newTestRouter(t, healthpb.HealthCheckResponse_SERVING)

	w := do(t, router, "POST", "/api/wizard/reset", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, "GET", "/api/wizard/294TL/confirmation?number=17", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, "GET", "/api/wizard/Ducato/number", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Healthz(t *testing.T) {
	w := do(t, newTestRouter(t, healthpb.HealthCheckResponse_SERVING), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, newTestRouter(t, healthpb.HealthCheckResponse_NOT_SERVING), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Docs(t *testing.T) {
	router := newTestRouter(t, healthpb.HealthCheckResponse_SERVING)

	w := do(t, router, "GET", "/swagger/reservations.swagger.json", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, "GET", "/docs/index.html", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger")
}

func TestDialTarget(t *testing.T) {
	assert.Equal(t, "localhost:9090", dialTarget(":9090"))
	assert.Equal(t, "grpc:9090", dialTarget("grpc:9090"))
}
