package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sugarcrumb/storefront-api/checkout"
)

const (
	GuestTokenTTL    = 24 * time.Hour
	CustomerTokenTTL = 7 * 24 * time.Hour
)

// Claims is the JWT payload shared with the customer identity service.
type Claims struct {
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	CartID uint   `json:"cart_id"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 session tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

func (i *Issuer) IssueGuest(guestID string, cartID uint) (string, time.Time, error) {
	return i.issue(Claims{Role: string(checkout.RoleGuest), CartID: cartID}, guestID, GuestTokenTTL)
}

func (i *Issuer) IssueCustomer(email string, cartID uint) (string, time.Time, error) {
	return i.issue(Claims{Role: string(checkout.RoleCustomer), Email: email, CartID: cartID}, email, CustomerTokenTTL)
}

func (i *Issuer) issue(claims Claims, subject string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates the token and returns the checkout session it carries.
func (i *Issuer) Parse(tokenString string) (checkout.Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return checkout.Session{}, fmt.Errorf("invalid or expired token: %w", err)
	}

	switch checkout.Role(claims.Role) {
	case checkout.RoleGuest:
	case checkout.RoleCustomer:
		if claims.Email == "" {
			return checkout.Session{}, errors.New("customer token without email")
		}
	default:
		return checkout.Session{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return checkout.Session{
		Role:   checkout.Role(claims.Role),
		Email:  claims.Email,
		CartID: claims.CartID,
	}, nil
}
