package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/apperr"
)

var ErrInvalidToken = apperr.Unauthorized("Invalid or expired token")

// Claims is the payload of every token this API issues. The subject is the actor id.
type Claims struct {
	Role         actor.Role `json:"role"`
	Email        string     `json:"email,omitempty"`
	RestaurantID uint       `json:"restaurant_id,omitempty"`
	CourierID    uint       `json:"courier_id,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for a. A zero expiresAt means now plus the issuer TTL.
func (i *Issuer) Issue(a actor.Actor, expiresAt time.Time) (string, time.Time, error) {
	now := i.now()
	if expiresAt.IsZero() {
		expiresAt = now.Add(i.ttl)
	}
	claims := Claims{
		Role:         a.Role,
		Email:        a.Email,
		RestaurantID: a.RestaurantID,
		CourierID:    a.CourierID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a token, with or without the "Bearer " prefix, and returns its actor.
func (i *Issuer) Parse(token string) (actor.Actor, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return actor.Actor{}, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil {
		return actor.Actor{}, apperr.Wrap(ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Role == "" || claims.Role == actor.RoleSystem {
		return actor.Actor{}, ErrInvalidToken
	}
	return actor.Actor{
		ID:           claims.Subject,
		Role:         claims.Role,
		Email:        claims.Email,
		RestaurantID: claims.RestaurantID,
		CourierID:    claims.CourierID,
	}, nil
}
