package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storehub/storehub-auth/internal/domain"
	"github.com/storehub/storehub-auth/internal/http/middleware"
	"github.com/storehub/storehub-auth/internal/service"
	"github.com/storehub/storehub-auth/internal/token"
)

var testCodec = token.NewCodec(
	[]byte("middleware-test-access-secret-012345"),
	[]byte("middleware-test-refresh-secret-01234"),
	time.Hour,
	7*24*time.Hour,
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := service.NewAuthService(stubUserRepo{}, testCodec, node, zap.NewNop())
	auth := &middleware.Auth{Service: svc}

	r := gin.New()
	r.GET("/protected", auth.Authenticate, func(c *gin.Context) {
		identity, _ := middleware.CurrentIdentity(c)
		c.JSON(http.StatusOK, identity)
	})
	r.GET("/admin-only", auth.Authenticate, middleware.RequireRoles(domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/owner-only", auth.Authenticate, middleware.RequireRoles(domain.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/staff", auth.Authenticate, middleware.RequireRoles(domain.RoleAdmin, domain.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/optional", auth.OptionalAuthenticate, func(c *gin.Context) {
		if identity, ok := middleware.CurrentIdentity(c); ok {
			c.JSON(http.StatusOK, gin.H{"email": identity.Email})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": nil})
	})
	return r
}

func issueToken(t *testing.T, role domain.Role) string {
	t.Helper()
	raw, err := testCodec.IssueAccessToken(domain.Identity{ID: 5, Email: "a@x.com", Role: role})
	require.NoError(t, err)
	return raw
}

func doRequest(r *gin.Engine, target string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateMissingToken(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, "/protected", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Missing and invalid tokens produce identical responses.
	missing := doRequest(r, "/protected", nil)
	require.Equal(t, missing.Body.String(), w.Body.String())
}

func TestAuthenticateExpiredToken(t *testing.T) {
	expiredIssuer := token.NewCodec(
		[]byte("middleware-test-access-secret-012345"),
		[]byte("middleware-test-refresh-secret-01234"),
		-5*time.Minute, time.Hour,
	)
	raw, err := expiredIssuer.IssueAccessToken(domain.Identity{ID: 5, Email: "a@x.com", Role: domain.RoleUser})
	require.NoError(t, err)

	r := newTestRouter(t)
	w := doRequest(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+raw)
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateBearerHeader(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, "/protected", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+issueToken(t, domain.RoleUser))
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "a@x.com")
}

func TestAuthenticateCookieFallback(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, "/protected", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: issueToken(t, domain.RoleUser)})
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthorizeRoleMembership(t *testing.T) {
	r := newTestRouter(t)

	// Insufficient role is Forbidden, not Unauthenticated.
	w := doRequest(r, "/admin-only", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+issueToken(t, domain.RoleUser))
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, "/admin-only", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+issueToken(t, domain.RoleAdmin))
	})
	require.Equal(t, http.StatusOK, w.Code)

	// No hierarchy: ADMIN does not pass an OWNER-only gate.
	w = doRequest(r, "/owner-only", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+issueToken(t, domain.RoleAdmin))
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Multi-role gates accept any enumerated role.
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleOwner} {
		w = doRequest(r, "/staff", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+issueToken(t, role))
		})
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, "/optional", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "null")

	w = doRequest(r, "/optional", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "null")

	w = doRequest(r, "/optional", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+issueToken(t, domain.RoleUser))
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "a@x.com")
}

// stubUserRepo satisfies the repository interface; the gate never
// touches persistence.
type stubUserRepo struct{}

func (stubUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}

func (stubUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}

func (stubUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return user, nil
}

func (stubUserRepo) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	return nil
}
