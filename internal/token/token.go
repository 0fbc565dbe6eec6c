package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"medhistory/internal/data/entity"
)

const (
	typeAccess     = "access"
	typeRefresh    = "refresh"
	typeActivation = "activation"
	typeReset      = "reset"
)

var ErrInvalid = errors.New("token invalid")

// Pair is the access/refresh pair handed to clients. RefreshID and
// RefreshExpiresAt identify the refresh token for session tracking.
type Pair struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	RefreshID        uuid.UUID `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// RefreshClaims is what a valid refresh token carries.
type RefreshClaims struct {
	UserID  uuid.UUID
	TokenID uuid.UUID
}

type claims struct {
	Type        string `json:"typ"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and checks every signed token of the service.
type Manager struct {
	accessSecret     []byte
	refreshSecret    []byte
	activationSecret []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	activationTTL    time.Duration
	now              func() time.Time
}

func NewManager(accessSecret, refreshSecret, activationSecret string, accessTTL, refreshTTL, activationTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:     []byte(accessSecret),
		refreshSecret:    []byte(refreshSecret),
		activationSecret: []byte(activationSecret),
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
		activationTTL:    activationTTL,
		now:              time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// IssuePair mints a fresh access/refresh pair for the user.
func (m *Manager) IssuePair(user *entity.User) (*Pair, error) {
	access, _, err := m.sign(user.ID, typeAccess, "", m.accessTTL, m.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, c, err := m.sign(user.ID, typeRefresh, "", m.refreshTTL, m.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &Pair{
		Access:           access,
		Refresh:          refresh,
		RefreshID:        uuid.MustParse(c.ID),
		RefreshExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// ParseAccess returns the user id carried by a valid access token.
func (m *Manager) ParseAccess(token string) (uuid.UUID, error) {
	c, err := m.parse(token, typeAccess, m.accessSecret)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(c.Subject)
}

// ParseRefresh returns the user and token ids carried by a valid refresh token.
func (m *Manager) ParseRefresh(token string) (*RefreshClaims, error) {
	c, err := m.parse(token, typeRefresh, m.refreshSecret)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalid
	}
	tokenID, err := uuid.Parse(c.ID)
	if err != nil {
		return nil, ErrInvalid
	}
	return &RefreshClaims{UserID: userID, TokenID: tokenID}, nil
}

// IssueActivation signs a link token bound to the user's current state.
// Changing the password, the active flag or the email verification flag
// invalidates every outstanding token.
func (m *Manager) IssueActivation(user *entity.User) (string, error) {
	signed, _, err := m.sign(user.ID, typeActivation, Fingerprint(user), m.activationTTL, m.activationSecret)
	return signed, err
}

// CheckActivation reports whether token was issued for user in its current state.
func (m *Manager) CheckActivation(user *entity.User, token string) bool {
	return m.checkBound(user, token, typeActivation)
}

// IssueReset signs a password reset link token. It is bound to the user's
// state like an activation token but is never accepted in its place.
func (m *Manager) IssueReset(user *entity.User) (string, error) {
	signed, _, err := m.sign(user.ID, typeReset, Fingerprint(user), m.activationTTL, m.activationSecret)
	return signed, err
}

// CheckReset reports whether token is a reset token issued for user in its current state.
func (m *Manager) CheckReset(user *entity.User, token string) bool {
	return m.checkBound(user, token, typeReset)
}

func (m *Manager) checkBound(user *entity.User, token, typ string) bool {
	c, err := m.parse(token, typ, m.activationSecret)
	if err != nil {
		return false
	}
	if c.Subject != user.ID.String() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Fingerprint), []byte(Fingerprint(user))) == 1
}

// Fingerprint digests the user fields whose change must revoke link tokens.
func Fingerprint(user *entity.User) string {
	h := sha256.New()
	h.Write([]byte(user.ID.String()))
	h.Write([]byte{0})
	h.Write([]byte(user.PasswordHash))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(user.IsActive)))
	h.Write([]byte(strconv.FormatBool(user.EmailVerified)))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// EncodeUID renders the user id for use inside a link path.
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

func DecodeUID(uid string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	return id, nil
}

func (m *Manager) sign(subject uuid.UUID, typ, fingerprint string, ttl time.Duration, secret []byte) (string, *claims, error) {
	now := m.now()
	c := claims{
		Type:        typ,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", nil, err
	}
	return signed, &c, nil
}

func (m *Manager) parse(token, typ string, secret []byte) (*claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}
	if c.Type != typ {
		return nil, ErrInvalid
	}
	return &c, nil
}
