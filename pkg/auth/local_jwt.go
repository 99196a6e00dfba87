package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenExpiry is the lifetime of a session token when none is configured.
const DefaultTokenExpiry = time.Hour

const tokenIssuer = "michi"

var (
	ErrEmptySecret   = errors.New("JWT secret key cannot be empty")
	ErrInvalidToken  = errors.New("invalid token")
	ErrUnknownHash   = errors.New("unknown password hash format")
	ErrMissingHeader = errors.New("empty authorization header")
)

// ExtractToken extracts the JWT token from an Authorization header value.
// Supports "Bearer <token>" format.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}

	return token, nil
}

// LocalJWTAuth signs and verifies session tokens and hashes passwords.
type LocalJWTAuth struct {
	SecretKey   []byte
	TokenExpiry time.Duration

	now func() time.Time
}

// NewLocalJWTAuth creates a new local JWT auth instance
func NewLocalJWTAuth(secretKey string, expiry time.Duration) (*LocalJWTAuth, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}

	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}

	return &LocalJWTAuth{
		SecretKey:   []byte(secretKey),
		TokenExpiry: expiry,
		now:         time.Now,
	}, nil
}

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// GenerateToken mints a token bound to the user's persistent identifier.
func (a *LocalJWTAuth) GenerateToken(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user ID is required")
	}

	now := a.now()
	expiresAt := now.Add(a.TokenExpiry)

	claims := JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.SecretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyToken checks signature and expiry and returns the embedded user ID.
func (a *LocalJWTAuth) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.SecretKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// Argon2 password hashing parameters (OWASP recommended)
const (
	argon2Time      = 3
	argon2Memory    = 64 * 1024
	argon2Threads   = 4
	argon2KeyLength = 32
	saltLength      = 16

	argon2Prefix = "argon2id$"
)

// HashPassword hashes a password using Argon2id
func (a *LocalJWTAuth) HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)

	// Format: argon2id$salt$hash
	return argon2Prefix + base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(hash), nil
}

// VerifyPassword verifies a password against a stored hash.
// Argon2id hashes are produced by HashPassword; bcrypt hashes come from
// accounts created by the previous Node.js backend.
func (a *LocalJWTAuth) VerifyPassword(hashedPassword, password string) (bool, error) {
	switch {
	case strings.HasPrefix(hashedPassword, argon2Prefix):
		return verifyArgon2(hashedPassword, password)
	case isBcryptHash(hashedPassword):
		err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to compare bcrypt hash: %w", err)
		}
		return true, nil
	default:
		return false, ErrUnknownHash
	}
}

func verifyArgon2(hashedPassword, password string) (bool, error) {
	hashParts := strings.Split(strings.TrimPrefix(hashedPassword, argon2Prefix), "$")
	if len(hashParts) != 2 {
		return false, fmt.Errorf("invalid hash format: expected 2 parts, got %d", len(hashParts))
	}

	salt, err := base64.RawStdEncoding.DecodeString(hashParts[0])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashParts[1])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	actualHash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLength)

	return subtle.ConstantTimeCompare(actualHash, expectedHash) == 1, nil
}

func isBcryptHash(h string) bool {
	return strings.HasPrefix(h, "$2a$") || strings.HasPrefix(h, "$2b$") || strings.HasPrefix(h, "$2y$")
}
