// utils/statement_token.go
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidStatementToken = errors.New("invalid or expired statement link")

// StatementClaims identify the statement a shared link points to.
type StatementClaims struct {
	StudentID uuid.UUID
	From      time.Time
	To        time.Time
	ExpiresAt time.Time
}

// GenerateStatementToken signs a link token for a student's statement over [from, to].
func GenerateStatementToken(secret string, studentID uuid.UUID, from, to time.Time, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("statement secret not set")
	}
	now := time.Now()
	expires := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  studentID.String(),
		"from": from.Unix(),
		"to":   to.Unix(),
		"exp":  expires.Unix(),
		"iat":  now.Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign statement token")
	}
	return signed, expires, nil
}

// ParseStatementToken verifies a link token and returns its claims.
func ParseStatementToken(secret, tokenString string) (*StatementClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidStatementToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidStatementToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidStatementToken
	}
	studentID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidStatementToken
	}
	from, okFrom := claims["from"].(float64)
	to, okTo := claims["to"].(float64)
	if !okFrom || !okTo {
		return nil, ErrInvalidStatementToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidStatementToken
	}

	return &StatementClaims{
		StudentID: studentID,
		From:      time.Unix(int64(from), 0),
		To:        time.Unix(int64(to), 0),
		ExpiresAt: exp.Time,
	}, nil
}
