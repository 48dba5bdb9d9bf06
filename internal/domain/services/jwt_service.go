package services

import (
	"fmt"
	"hoa-http-service/internal/infrastructure/config"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in tokens
const (
	RoleBoardMember = "board_member"
	RoleResident    = "resident"
)

// InterfaceJWTService defines the JWT service interface
type InterfaceJWTService interface {
	GenerateToken(ownerID uint, role string, temporary bool) (string, time.Time, error)
	ExtractClaims(tokenString string) (*JWTClaims, error)
	ExtractRefreshClaims(tokenString string) (*JWTClaims, error)
}

// JWTService signs and verifies owner tokens
type JWTService struct {
	secretKey     string
	issuer        string
	ttl           time.Duration
	refreshWindow time.Duration
	now           Clock
}

// JWTClaims defines the claims of an owner token
type JWTClaims struct {
	OwnerID   uint   `json:"owner_id"`
	Role      string `json:"role"`
	Temporary bool   `json:"temp,omitempty"`
	jwt.RegisteredClaims
}

// IsBoardMember reports whether the token was issued to a board member
func (c *JWTClaims) IsBoardMember() bool {
	return c.Role == RoleBoardMember
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg *config.Config, now Clock) InterfaceJWTService {
	if now == nil {
		now = SystemClock
	}
	return &JWTService{
		secretKey:     cfg.JWTSecretKey,
		issuer:        "hoa-http-service",
		ttl:           cfg.TokenTTL,
		refreshWindow: cfg.TokenRefreshWindow,
		now:           now,
	}
}

// 1 GenerateToken signs a token for the owner and returns its expiry
func (s *JWTService) GenerateToken(ownerID uint, role string, temporary bool) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)

	claims := &JWTClaims{
		OwnerID:   ownerID,
		Role:      role,
		Temporary: temporary,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(ownerID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *JWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(s.secretKey), nil
}

// 2 ExtractClaims verifies the signature and expiry of a token
func (s *JWTService) ExtractClaims(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// 3 ExtractRefreshClaims verifies the signature and accepts an expired token
// while it is inside the refresh window
func (s *JWTService) ExtractRefreshClaims(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	if s.now().After(claims.ExpiresAt.Time.Add(s.refreshWindow)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}
