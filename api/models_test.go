package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type MockFleetUseCase struct {
	mock.Mock
}

func (m *MockFleetUseCase) List(ctx context.Context) ([]domain.VehicleModel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VehicleModel), args.Error(1)
}

func (m *MockFleetUseCase) Get(ctx context.Context, name string) (domain.VehicleModel, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.VehicleModel), args.Error(1)
}

func TestModelHandler_list(t *testing.T) {
	mockService := &MockFleetUseCase{}
	handler := NewModelHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/models", nil)

	models := []domain.VehicleModel{{Name: "294TL", Plate: "9243MBV"}}
	mockService.On("List", c.Request.Context()).Return(models, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []domain.VehicleModel
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, models, response)
	mockService.AssertExpectations(t)
}

func TestModelHandler_listError(t *testing.T) {
	mockService := &MockFleetUseCase{}
	handler := NewModelHandler(mockService)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/models", nil)

	mockService.On("List", c.Request.Context()).Return(nil, errors.New("boom"))

	handler.list(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
