package token

import (
	"fmt"
	"strconv"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/storehub/storehub-auth/internal/domain"
)

var allowedAlgorithms = []jose.SignatureAlgorithm{jose.HS256}

// Codec signs and verifies the two token classes. Access and refresh
// tokens use independent secrets so a compromise of one cannot forge
// the other. The codec holds no state beyond its configuration and
// performs no I/O.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewCodec constructs a codec from the two signing secrets and token
// lifetimes.
func NewCodec(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RefreshTTL exposes the configured refresh token lifetime; the HTTP
// layer uses it for the refresh cookie's Max-Age.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccessToken signs an identity into a short-lived bearer token.
// The claim set is fixed: sub, email, role, iat, nbf, exp.
func (c *Codec) IssueAccessToken(identity domain.Identity) (string, error) {
	std, custom := c.buildAccessClaims(identity, time.Now().UTC())
	return sign(c.accessSecret, std, &custom)
}

// IssueRefreshToken signs a long-lived token carrying only the user ID.
func (c *Codec) IssueRefreshToken(userID int64) (string, error) {
	now := time.Now().UTC()
	std := jwt.Claims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(c.refreshTTL)),
	}
	return sign(c.refreshSecret, std, nil)
}

// VerifyAccess checks signature and expiry and decodes the identity.
// It is a total function: any anomaly, including a token signed with
// the refresh secret, yields ok=false rather than an error.
func (c *Codec) VerifyAccess(raw string) (domain.Identity, bool) {
	var custom accessClaims
	std, ok := verify(c.accessSecret, raw, &custom)
	if !ok {
		return domain.Identity{}, false
	}

	id, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return domain.Identity{}, false
	}
	role, err := domain.ParseRole(custom.Role)
	if err != nil {
		return domain.Identity{}, false
	}

	return domain.Identity{ID: id, Email: custom.Email, Role: role}, true
}

// VerifyRefresh checks signature and expiry against the refresh secret
// and returns the embedded user ID. Same fail-closed contract as
// VerifyAccess.
func (c *Codec) VerifyRefresh(raw string) (int64, bool) {
	std, ok := verify(c.refreshSecret, raw, nil)
	if !ok {
		return 0, false
	}

	id, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c *Codec) buildAccessClaims(identity domain.Identity, now time.Time) (jwt.Claims, accessClaims) {
	std := jwt.Claims{
		Subject:   strconv.FormatInt(identity.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(now.Add(c.accessTTL)),
	}
	custom := accessClaims{Email: identity.Email, Role: string(identity.Role)}
	return std, custom
}

func sign(secret []byte, std jwt.Claims, custom *accessClaims) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	builder := jwt.Signed(signer).Claims(std)
	if custom != nil {
		builder = builder.Claims(custom)
	}
	serialized, err := builder.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return serialized, nil
}

func verify(secret []byte, raw string, custom *accessClaims) (jwt.Claims, bool) {
	parsed, err := jwt.ParseSigned(raw, allowedAlgorithms)
	if err != nil {
		return jwt.Claims{}, false
	}

	var std jwt.Claims
	dests := []any{&std}
	if custom != nil {
		dests = append(dests, custom)
	}
	if err := parsed.Claims(secret, dests...); err != nil {
		return jwt.Claims{}, false
	}

	if err := std.Validate(jwt.Expected{Time: time.Now()}); err != nil {
		return jwt.Claims{}, false
	}
	return std, true
}
