package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/marketmap/backend/internal/auth"
	"github.com/marketmap/backend/internal/domain"
	"github.com/marketmap/backend/internal/stats"
	"github.com/marketmap/backend/internal/store"
)

// MockProductStorer is a mock implementation of store.ProductStorer
type MockProductStorer struct {
	mock.Mock
}

func (m *MockProductStorer) UpsertProductByName(ctx context.Context, name, category string, price float64, imageRef *string) (uuid.UUID, error) {
	args := m.Called(ctx, name, category, price, imageRef)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockProductStorer) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) FindProductByName(ctx context.Context, name string) (*domain.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductStorer) FindProductsBySimilarity(ctx context.Context, name string, threshold float64) ([]domain.Product, error) {
	args := m.Called(ctx, name, threshold)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockProductStorer) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	args := m.Called(ctx, search)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

// MockUserStorer is a mock implementation of store.UserStorer
type MockUserStorer struct {
	mock.Mock
}

func (m *MockUserStorer) CreateUser(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	args := m.Called(ctx, email, passwordHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserStorer) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// Helper for setting up tests with a chi router and handler. Real stats and
// auth services run over the mocked stores.
func setupTestChiServer(t *testing.T, products store.ProductStorer, users store.UserStorer) *httptest.Server {
	handler := NewHTTPHandler(products, stats.NewService(products), auth.NewService(users))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return httptest.NewServer(router)
}

func TestHTTPHandler_ListProducts_Success(t *testing.T) {
	mockProducts := new(MockProductStorer)
	server := setupTestChiServer(t, mockProducts, nil)
	defer server.Close()

	now := time.Now().Truncate(time.Millisecond)
	expected := []domain.Product{
		{ID: uuid.New(), Name: "HP Pavilion 15", Category: "laptops", AvgPrice: 450000, MinPrice: 450000, MaxPrice: 450000, LastUpdated: now},
		{ID: uuid.New(), Name: "Lenovo IdeaPad 3", Category: "laptops", AvgPrice: 310000, MinPrice: 310000, MaxPrice: 310000, LastUpdated: now},
	}

	mockProducts.On("ListProducts", mock.Anything, "pavilion").Return(expected, nil).Once()

	res, err := http.Get(server.URL + "/products?search=pavilion")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var payload []domain.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.Len(t, payload, 2)
	assert.Equal(t, "HP Pavilion 15", payload[0].Name)
	assert.Nil(t, payload[0].PreviousPrice, "never-updated product serializes without previous_price")

	mockProducts.AssertExpectations(t)
}

func TestHTTPHandler_GetMarketStats_Success(t *testing.T) {
	mockProducts := new(MockProductStorer)
	server := setupTestChiServer(t, mockProducts, nil)
	defer server.Close()

	productID := uuid.New()
	queried := &domain.Product{ID: productID, Name: "HP Pavilion 15", AvgPrice: 450000}

	mockProducts.On("GetProductByID", mock.Anything, productID).Return(queried, nil).Once()
	mockProducts.On("FindProductsBySimilarity", mock.Anything, "HP Pavilion 15", stats.SimilarityThreshold).
		Return([]domain.Product{
			{Name: "HP Pavilion 15", AvgPrice: 450000},
			{Name: "HP Pavilion 14", AvgPrice: 350000},
		}, nil).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/products/%s/stats", productID))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var payload struct {
		HighestPrice float64 `json:"highest_price"`
		LowestPrice  float64 `json:"lowest_price"`
		AveragePrice float64 `json:"average_price"`
		SimilarCount int64   `json:"similar_count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, 450000.0, payload.HighestPrice)
	assert.Equal(t, 350000.0, payload.LowestPrice)
	assert.Equal(t, 400000.0, payload.AveragePrice)
	assert.Equal(t, int64(2), payload.SimilarCount)

	mockProducts.AssertExpectations(t)
}

func TestHTTPHandler_GetMarketStats_NotFound(t *testing.T) {
	mockProducts := new(MockProductStorer)
	server := setupTestChiServer(t, mockProducts, nil)
	defer server.Close()

	productID := uuid.New()
	mockProducts.On("GetProductByID", mock.Anything, productID).Return(nil, store.ErrProductNotFound).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/products/%s/stats", productID))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, store.ErrProductNotFound.Error(), errResp.Error)

	mockProducts.AssertExpectations(t)
}

func TestHTTPHandler_GetMarketStats_InvalidID(t *testing.T) {
	mockProducts := new(MockProductStorer)
	server := setupTestChiServer(t, mockProducts, nil)
	defer server.Close()

	res, err := http.Get(server.URL + "/products/not-a-uuid/stats")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	mockProducts.AssertNumberOfCalls(t, "GetProductByID", 0)
}

func TestHTTPHandler_Register_Success(t *testing.T) {
	mockUsers := new(MockUserStorer)
	server := setupTestChiServer(t, nil, mockUsers)
	defer server.Close()

	expectedID := uuid.New()
	mockUsers.On("CreateUser", mock.Anything, "dev@example.com", mock.AnythingOfType("string")).
		Return(expectedID, nil).Once()

	reqBody, _ := json.Marshal(RegisterInput{Email: "dev@example.com", Password: "hunter2-secret"})
	res, err := http.Post(server.URL+"/register", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	assert.Equal(t, expectedID.String(), payload["id"])

	mockUsers.AssertExpectations(t)
}

func TestHTTPHandler_Register_EmailTaken(t *testing.T) {
	mockUsers := new(MockUserStorer)
	server := setupTestChiServer(t, nil, mockUsers)
	defer server.Close()

	mockUsers.On("CreateUser", mock.Anything, "dev@example.com", mock.AnythingOfType("string")).
		Return(uuid.Nil, store.ErrEmailExists).Once()

	reqBody, _ := json.Marshal(RegisterInput{Email: "dev@example.com", Password: "hunter2-secret"})
	res, err := http.Post(server.URL+"/register", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusConflict, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, auth.ErrEmailTaken.Error(), errResp.Error)

	mockUsers.AssertExpectations(t)
}

func TestHTTPHandler_Register_InvalidPayload_Validation(t *testing.T) {
	mockUsers := new(MockUserStorer)
	server := setupTestChiServer(t, nil, mockUsers)
	defer server.Close()

	reqBody, _ := json.Marshal(RegisterInput{Email: "not-an-email", Password: "hunter2-secret"})
	res, err := http.Post(server.URL+"/register", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "Validation failed")
	mockUsers.AssertNumberOfCalls(t, "CreateUser", 0)
}

func TestHTTPHandler_Login_Success(t *testing.T) {
	mockUsers := new(MockUserStorer)
	server := setupTestChiServer(t, nil, mockUsers)
	defer server.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	userID := uuid.New()
	mockUsers.On("GetUserByEmail", mock.Anything, "dev@example.com").
		Return(&domain.User{ID: userID, Email: "dev@example.com", PasswordHash: string(hash)}, nil).Once()

	reqBody, _ := json.Marshal(LoginInput{Email: "dev@example.com", Password: "hunter2-secret"})
	res, err := http.Post(server.URL+"/login", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var profile domain.UserProfile
	require.NoError(t, json.NewDecoder(res.Body).Decode(&profile))
	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, "dev@example.com", profile.Email)
	assert.Equal(t, "dev", profile.Name)

	mockUsers.AssertExpectations(t)
}

func TestHTTPHandler_Login_BadCredentials(t *testing.T) {
	mockUsers := new(MockUserStorer)
	server := setupTestChiServer(t, nil, mockUsers)
	defer server.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	mockUsers.On("GetUserByEmail", mock.Anything, "dev@example.com").
		Return(&domain.User{ID: uuid.New(), Email: "dev@example.com", PasswordHash: string(hash)}, nil).Once()

	reqBody, _ := json.Marshal(LoginInput{Email: "dev@example.com", Password: "wrong-password"})
	res, err := http.Post(server.URL+"/login", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, auth.ErrInvalidCredentials.Error(), errResp.Error)

	mockUsers.AssertExpectations(t)
}
