package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sftp-gateway/internal/model"
)

const sessionIssuer = "sftp-gateway"

// GateService checks the shared access PIN and issues the session tokens
// stored in the access cookie.
type GateService struct {
	pin        []byte
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewGateService(pin string, secret string, ttl time.Duration) *GateService {
	// Sessions are bound to the PIN too, so changing it signs everyone out.
	key := sha256.Sum256([]byte(secret + "\x00" + pin))

	return &GateService{
		pin:        []byte(pin),
		signingKey: key[:],
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *GateService) TTL() time.Duration {
	return s.ttl
}

// VerifyPIN returns a signed session token when pin matches.
func (s *GateService) VerifyPIN(pin string) (string, time.Time, error) {
	if subtle.ConstantTimeCompare([]byte(pin), s.pin) != 1 {
		return "", time.Time{}, model.ErrInvalidPIN
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (s *GateService) ValidateSession(tokenString string) error {
	if tokenString == "" {
		return model.ErrSessionInvalid
	}

	_, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return errors.Join(model.ErrSessionInvalid, err)
	}

	return nil
}
