package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/karrelday/TaraLaba/internal/config"
	"github.com/karrelday/TaraLaba/internal/entities"
	"github.com/karrelday/TaraLaba/internal/handler"
	"github.com/karrelday/TaraLaba/internal/middleware"
	"github.com/karrelday/TaraLaba/internal/orderflow"
	"github.com/karrelday/TaraLaba/internal/services/jwttoken"
	"github.com/karrelday/TaraLaba/internal/storage"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	staffID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c03"
	adminID = "7e8f9a0b-1c2d-4e3f-8a5b-6c7d8e9f0a04"
)

// usersByID answers like the users table: malformed ids fail with the uuid syntax error.
type usersByID map[string]entities.User

func (u usersByID) LoadUser(_ context.Context, id string) (entities.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return entities.User{}, &pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"}
	}

	user, ok := u[id]
	if !ok {
		return entities.User{}, storage.ErrNoRows
	}

	return user, nil
}

func (u usersByID) InvalidateUser(context.Context, string) {}

func newTestServer(t *testing.T) (*Server, *storage.MockStorage) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockStorage := storage.NewMockStorage(ctrl)
	tokens := jwttoken.NewManager("test-secret", 0)

	users := usersByID{
		staffID: {ID: staffID, Role: entities.RoleStaff, Permissions: entities.PermissionsForRole(entities.RoleStaff)},
		adminID: {ID: adminID, Role: entities.RoleAdmin, Permissions: entities.PermissionsForRole(entities.RoleAdmin)},
	}

	h := handler.NewHandler(mockStorage, orderflow.NewFlow(mockStorage), tokens, users)

	return NewServer(config.Config{Address: ":0"}, h, users, tokens), mockStorage
}

func request(s *Server, method, target, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	return rec
}

func TestPublicRoutes(t *testing.T) {
	s, mockStorage := newTestServer(t)

	rec := request(s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Laundry Management API")

	mockStorage.EXPECT().Ping(gomock.Any()).Return(nil)

	rec = request(s, http.MethodGet, "/db-status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"connected"}`, rec.Body.String())
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)

	for _, target := range []string{"/fetchorder", "/fetchusers", "/notifications", "/receipt/3f2c8a34-6d1e-4a8b-9f0c-2b7e5d4a1c05"} {
		rec := request(s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	for _, userID := range []string{"nobody", "3f2c8a34-6d1e-4a8b-9f0c-2b7e5d4a1c05"} {
		rec := request(s, http.MethodGet, "/fetchorder", userID)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, userID)
		assert.JSONEq(t, `{"message":"Authentication required"}`, rec.Body.String())
	}

	for _, target := range []string{"/fetchusers/abc", "/notifications/abc/read"} {
		method := http.MethodGet
		if target == "/notifications/abc/read" {
			method = http.MethodPut
		}

		rec := request(s, method, target, adminID)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestPermissionGuards(t *testing.T) {
	s, mockStorage := newTestServer(t)

	rec := request(s, http.MethodGet, "/fetchusers", staffID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mockStorage.EXPECT().GetUsers(gomock.Any()).Return([]entities.User{}, nil)

	rec = request(s, http.MethodGet, "/fetchusers", adminID)
	assert.Equal(t, http.StatusOK, rec.Code)

	mockStorage.EXPECT().GetOrders(gomock.Any(), entities.OrderFilter{}).Return(nil, nil)

	rec = request(s, http.MethodGet, "/fetchorder", staffID)
	assert.Equal(t, http.StatusOK, rec.Code)

	mockStorage.EXPECT().DeleteOrder(gomock.Any(), "3f2c8a34-6d1e-4a8b-9f0c-2b7e5d4a1c05").Return(nil)

	rec = request(s, http.MethodDelete, "/deleteorder/3f2c8a34-6d1e-4a8b-9f0c-2b7e5d4a1c05", staffID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGzipRequestBody(t *testing.T) {
	s, mockStorage := newTestServer(t)

	var body bytes.Buffer

	writer := gzip.NewWriter(&body)
	_, err := writer.Write([]byte(`{"userName":"juan","password":"s3cret"}`))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	mockStorage.EXPECT().GetUserByUserName(gomock.Any(), "juan").Return(entities.User{}, storage.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/login", &body)
	req.Header.Set("Content-Encoding", "gzip")

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
