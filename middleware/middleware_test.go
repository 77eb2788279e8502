package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tajeats-api/apperr"
	"tajeats-api/auth"
	"tajeats-api/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingRevocations struct{}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

type staffLinks struct {
	restaurantID *uint
	err          error
	calls        int
}

func (s *staffLinks) RestaurantOf(context.Context, uint) (*uint, error) {
	s.calls++
	return s.restaurantID, s.err
}

func issue(t *testing.T, tokens *auth.TokenManager, role models.UserRole, restaurantID *uint) (string, *auth.Claims) {
	t.Helper()
	token, err := tokens.Issue(&models.User{ID: 7, Email: "staff@example.com", Role: role, RestaurantID: restaurantID})
	require.NoError(t, err)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	return token, claims
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID, "role": actor.Role})
	})
	r.GET("/", handlers...)
	return r
}

func call(r http.Handler, header string) (int, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestAuthRequired(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "tajeats-test", time.Hour)
	other := auth.NewTokenManager("other-secret", "tajeats-test", time.Hour)
	blacklist := auth.NewMemoryBlacklist()

	valid, _ := issue(t, tokens, models.RoleCustomer, nil)
	forged, _ := issue(t, other, models.RoleAdmin, nil)
	revoked, revokedClaims := issue(t, tokens, models.RoleCustomer, nil)
	require.NoError(t, blacklist.Revoke(context.Background(), revokedClaims.ID, time.Hour))

	r := newRouter(AuthRequired(tokens, blacklist, nil))

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization header required (Bearer <token>)"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Authorization header required (Bearer <token>)"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid or expired token"},
		{"wrong signature", "Bearer " + forged, http.StatusUnauthorized, "Invalid or expired token"},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized, "Token has been revoked"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(r, tt.header)
			assert.Equal(t, tt.status, status)
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			} else {
				assert.EqualValues(t, 7, body["userId"])
				assert.Equal(t, "CUSTOMER", body["role"])
			}
		})
	}
}

func TestAuthRequiredRevocationStoreError(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "tajeats-test", time.Hour)
	token, _ := issue(t, tokens, models.RoleCustomer, nil)

	status, body := call(newRouter(AuthRequired(tokens, failingRevocations{}, nil)), "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to verify token", body["error"])
}

func TestAuthRequiredStaffLinks(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "tajeats-test", time.Hour)
	claimed, stored := uint(3), uint(4)
	owner, _ := issue(t, tokens, models.RoleRestaurantOwner, &claimed)
	customer, _ := issue(t, tokens, models.RoleCustomer, nil)

	restaurantOf := func(links StaffLinks) *gin.Engine {
		r := gin.New()
		r.GET("/", AuthRequired(tokens, auth.NewMemoryBlacklist(), links), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"restaurantId": ActorFrom(c).RestaurantID})
		})
		return r
	}

	t.Run("stored link wins", func(t *testing.T) {
		status, body := call(restaurantOf(&staffLinks{restaurantID: &stored}), "Bearer "+owner)
		require.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, stored, body["restaurantId"])
	})
	t.Run("unlinked", func(t *testing.T) {
		status, body := call(restaurantOf(&staffLinks{}), "Bearer "+owner)
		require.Equal(t, http.StatusOK, status)
		assert.Nil(t, body["restaurantId"])
	})
	t.Run("account gone", func(t *testing.T) {
		status, body := call(restaurantOf(&staffLinks{err: apperr.InvalidCredentials()}), "Bearer "+owner)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Account no longer exists", body["error"])
	})
	t.Run("store error", func(t *testing.T) {
		status, body := call(restaurantOf(&staffLinks{err: errors.New("db down")}), "Bearer "+owner)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to verify token", body["error"])
	})
	t.Run("customers skip the lookup", func(t *testing.T) {
		links := &staffLinks{err: errors.New("not called")}
		status, _ := call(restaurantOf(links), "Bearer "+customer)
		assert.Equal(t, http.StatusOK, status)
		assert.Zero(t, links.calls)
	})
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "tajeats-test", time.Hour)
	r := newRouter(OptionalAuth(tokens, auth.NewMemoryBlacklist(), nil))
	token, _ := issue(t, tokens, models.RoleRider, nil)

	status, body := call(r, "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["userId"], "anonymous callers get the zero actor")

	status, body = call(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "RIDER", body["role"])

	status, _ = call(r, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(r, "Bearer broken")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRoleRequired(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "tajeats-test", time.Hour)
	blacklist := auth.NewMemoryBlacklist()
	r := newRouter(AuthRequired(tokens, blacklist, nil), RoleRequired(models.RoleRestaurantOwner, models.RoleAdmin))

	rid := uint(3)
	owner, _ := issue(t, tokens, models.RoleRestaurantOwner, &rid)
	customer, _ := issue(t, tokens, models.RoleCustomer, nil)

	status, _ := call(r, "Bearer "+owner)
	assert.Equal(t, http.StatusOK, status)

	status, body := call(r, "Bearer "+customer)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied. Required role(s): RESTAURANT_OWNER, ADMIN", body["error"])

	// without AuthRequired there are no claims to check
	status, _ = call(newRouter(RoleRequired(models.RoleAdmin)), "Bearer "+owner)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestActorFromClaims(t *testing.T) {
	tokens := auth.NewTokenManager("secret", "tajeats-test", time.Hour)
	rid := uint(9)
	_, claims := issue(t, tokens, models.RoleRestaurantOwner, &rid)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Zero(t, ActorFrom(c))

	c.Set(claimsKey, claims)
	actor := ActorFrom(c)
	assert.Equal(t, uint(7), actor.UserID)
	assert.Equal(t, models.RoleRestaurantOwner, actor.Role)
	require.NotNil(t, actor.RestaurantID)
	assert.Equal(t, rid, *actor.RestaurantID)
	assert.True(t, actor.CanManageRestaurant(9))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSAllowAll(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
