package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/storehub/storehub-auth/internal/domain"
	pw "github.com/storehub/storehub-auth/internal/password"
	"github.com/storehub/storehub-auth/internal/repository"
	"github.com/storehub/storehub-auth/internal/token"
)

// decoyHash keeps login latency comparable whether or not the email
// exists: the unknown-email branch still pays for one argon2id
// computation before returning the shared invalid-credentials error.
var decoyHash = func() string {
	h, err := pw.Hash("decoy-credentials")
	if err != nil {
		panic(err)
	}
	return h
}()

// RegisterInput carries a registration request. Role is optional and
// defaults to USER.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Address  string
	Role     domain.Role
}

// AuthResult bundles the identity with a freshly issued token pair.
type AuthResult struct {
	User         domain.Identity
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates registration, login, refresh rotation, and
// logout. It is constructed once at process start and shared by
// reference; all per-request state lives on the stack.
type AuthService struct {
	users  repository.UserRepository
	codec  *token.Codec
	node   *snowflake.Node
	logger *zap.Logger
	tracer trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, codec *token.Codec, node *snowflake.Node, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		codec:  codec,
		node:   node,
		logger: logger,
		tracer: otel.Tracer("github.com/storehub/storehub-auth/internal/service"),
	}
}

// Register creates a user and logs them in. Email matching is exact and
// case-sensitive; a duplicate yields Conflict.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	email := strings.TrimSpace(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, domain.ErrConflict("Email already exists.")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := pw.Hash(input.Password)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}

	user := domain.User{
		ID:           s.node.Generate().Int64(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Address:      strings.TrimSpace(input.Address),
		PasswordHash: hashed,
		Role:         role,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	result, err := s.issueSession(ctx, created)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, err
	}

	s.audit("auth.register.success", "user_id", created.ID, "role", string(created.Role))
	return result, nil
}

// Login authenticates with email and password. Unknown emails and wrong
// passwords return the identical InvalidCredentials error. A successful
// login overwrites any stored refresh token, so at most one session per
// user holds a usable refresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			return AuthResult{}, fmt.Errorf("lookup user: %w", err)
		}
		_, _ = pw.Verify(password, decoyHash)
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	valid, err := pw.Verify(password, user.PasswordHash)
	if err != nil || !valid {
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, err
	}

	s.audit("auth.login.success", "user_id", user.ID)
	return result, nil
}

// Refresh rotates the refresh token. The presented token must verify
// cryptographically, be unexpired, and exactly match the stored value;
// any other state, including a previously rotated token, yields
// InvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	userID, ok := s.codec.VerifyRefresh(refreshToken)
	if !ok {
		return AuthResult{}, domain.ErrInvalidRefreshToken()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
			return AuthResult{}, fmt.Errorf("lookup user: %w", err)
		}
		return AuthResult{}, domain.ErrInvalidRefreshToken()
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		s.audit("auth.refresh.mismatch", "user_id", user.ID)
		return AuthResult{}, domain.ErrInvalidRefreshToken()
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		span.RecordError(err)
		return AuthResult{}, err
	}

	s.audit("auth.refresh.success", "user_id", user.ID)
	return result, nil
}

// Logout clears the stored refresh token. It is idempotent: repeated
// calls and calls for already logged-out users succeed.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	ctx, span := s.startSpan(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		span.RecordError(err)
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.audit("auth.logout", "user_id", userID)
	return nil
}

// VerifyAccessToken delegates to the codec's fail-closed verification.
func (s *AuthService) VerifyAccessToken(raw string) (domain.Identity, bool) {
	return s.codec.VerifyAccess(raw)
}

// RefreshTokenTTL reports the configured refresh token lifetime.
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.codec.RefreshTTL()
}

// issueSession mints a token pair for the user and persists the new
// refresh token. Rotation is a plain overwrite: concurrent refreshes
// for one user race and the last write wins, orphaning the loser's
// token on its next use.
func (s *AuthService) issueSession(ctx context.Context, user domain.User) (AuthResult, error) {
	identity := user.Identity()

	access, err := s.codec.IssueAccessToken(identity)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return AuthResult{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return AuthResult{User: identity, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
