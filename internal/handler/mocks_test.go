package handler

import (
	"context"
	"io"
	"net/http"

	"stockroom/internal/middleware"
	"stockroom/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, query, category string, page int) (*model.ProductPage, error) {
	args := m.Called(ctx, query, category, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductPage), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, actor model.Actor, req *model.CreateProductRequest) (*model.Product, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateProductRequest) (*model.UpdateProductResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UpdateProductResponse), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockProductService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockStockService is a mock implementation of StockService.
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) Adjust(ctx context.Context, actor model.Actor, productID uuid.UUID, req *model.AdjustRequest) (*model.AdjustResponse, error) {
	args := m.Called(ctx, actor, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdjustResponse), args.Error(1)
}

func (m *MockStockService) Drift(ctx context.Context) ([]model.LedgerDrift, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LedgerDrift), args.Error(1)
}

// MockMovementService is a mock implementation of MovementService.
type MockMovementService struct {
	mock.Mock
}

func (m *MockMovementService) History(ctx context.Context, rangeKey, from, to string) (*model.MovementHistory, error) {
	args := m.Called(ctx, rangeKey, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MovementHistory), args.Error(1)
}

// MockTransferService is a mock implementation of TransferService. Readers
// are drained so tests can assert on the uploaded bytes.
type MockTransferService struct {
	mock.Mock
	uploaded string
}

func (m *MockTransferService) Preview(ctx context.Context, r io.Reader) (*model.ImportPreview, error) {
	data, _ := io.ReadAll(r)
	m.uploaded = string(data)
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportPreview), args.Error(1)
}

func (m *MockTransferService) Import(ctx context.Context, actor model.Actor, r io.Reader, mapping map[string]string) (*model.ImportResult, error) {
	data, _ := io.ReadAll(r)
	m.uploaded = string(data)
	args := m.Called(ctx, actor, mapping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

func (m *MockTransferService) Export(ctx context.Context, w io.Writer) (int, error) {
	args := m.Called(ctx)
	if body := args.String(1); body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Int(0), args.Error(2)
}

func (m *MockTransferService) Snapshot(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockMediaService is a mock implementation of MediaService.
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) UploadImage(ctx context.Context, actor model.Actor, filename string, r io.Reader) (*model.UploadResponse, error) {
	args := m.Called(ctx, actor, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResponse), args.Error(1)
}

func (m *MockMediaService) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, actor model.Actor) (*model.Me, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Me), args.Error(1)
}

func (m *MockUserService) Profiles(ctx context.Context) ([]model.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Profile), args.Error(1)
}

func (m *MockUserService) UpdateRole(ctx context.Context, actor model.Actor, id uuid.UUID, role model.Role) (*model.Profile, error) {
	args := m.Called(ctx, actor, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockUserService) Invite(ctx context.Context, req *model.InviteRequest) (*model.InviteResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InviteResponse), args.Error(1)
}

func (m *MockUserService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) (*model.ResetPasswordResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResetPasswordResponse), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, req *model.DeleteUserRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Accept(ctx context.Context, req *model.AcceptRequest) (*model.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenResponse), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (model.Actor, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Actor), args.Error(1)
}

var testManager = model.Actor{ID: uuid.MustParse("7d8a8c2e-3f0b-4b7e-9f55-2a1c6a4e1f01"), Role: model.RoleManager}

// asActor attaches actor to the request as the auth middleware would.
func asActor(r *http.Request, actor model.Actor) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), actor))
}

func strPtr(s string) *string {
	return &s
}
