// Package session is the single session authority for the portal. It
// replaces the legacy scheme of three mutually-exclusive persisted blobs with
// order-dependent presence checks: the current actor is one tagged value,
// issued and resolved in exactly one place.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Role identifies the actor kind.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor || r == RoleAdmin
}

// Session is the resolved current actor. The zero value is anonymous.
type Session struct {
	Role        Role   `json:"role"`
	ID          int64  `json:"id"`
	DisplayName string `json:"displayName"`
}

// Anonymous reports whether no actor is resolved.
func (s Session) Anonymous() bool { return !s.Role.Valid() }

// Authority issues and resolves signed session tokens.
type Authority struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// DefaultTTL bounds a session's lifetime.
const DefaultTTL = 12 * time.Hour

var errNoSecret = errors.New("session secret is required")

// NewAuthority creates the session authority.
func NewAuthority(secret []byte, ttl time.Duration, logger *zap.Logger) (*Authority, error) {
	if len(secret) == 0 {
		return nil, errNoSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authority{secret: secret, ttl: ttl, logger: logger}, nil
}

// Issue signs a token for the session.
func (a *Authority) Issue(s Session) (string, error) {
	if !s.Role.Valid() {
		return "", fmt.Errorf("cannot issue token for role %q", s.Role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(s.ID, 10),
		"role": string(s.Role),
		"name": s.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Resolve parses a token into a session. Any parse or claim failure degrades
// to anonymous rather than erroring: an unreadable session is simply no
// session.
func (a *Authority) Resolve(token string) (Session, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		a.logger.Debug("session token rejected", zap.Error(err))
		return Session{}, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, false
	}

	role := Role(stringClaim(claims, "role"))
	if !role.Valid() {
		return Session{}, false
	}
	id, err := strconv.ParseInt(stringClaim(claims, "sub"), 10, 64)
	if err != nil || id == 0 {
		return Session{}, false
	}

	return Session{Role: role, ID: id, DisplayName: stringClaim(claims, "name")}, true
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// DisplayName derives the name shown in the dashboard header: the stored
// name when present, otherwise the email local part with its first letter
// capitalized.
func DisplayName(name, email string) string {
	if name != "" {
		return name
	}
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	if local == "" {
		return ""
	}
	return strings.ToUpper(local[:1]) + local[1:]
}
