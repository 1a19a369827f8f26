// Package auth verifies bearer tokens issued by the identity provider.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "auth.principal"

// Claims are the JWT claims read from identity provider tokens.
// Roles may be given directly or in Keycloak's realm_access block.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string   `json:"preferred_username,omitempty"`
	Roles             []string `json:"roles,omitempty"`
	RealmAccess       struct {
		Roles []string `json:"roles,omitempty"`
	} `json:"realm_access,omitempty"`
}

// AllRoles merges top-level and realm roles.
func (c *Claims) AllRoles() []string {
	return append(slices.Clone(c.Roles), c.RealmAccess.Roles...)
}

// Principal is the authenticated caller.
type Principal struct {
	ID       string   `json:"id"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles"`
}

func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// Name is the username when known, otherwise the subject.
func (p *Principal) Name() string {
	if p.Username != "" {
		return p.Username
	}
	return p.ID
}

// Validator verifies HS256-signed tokens.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator returns nil when secret is empty; RequireRole then rejects every request.
func NewValidator(secret, issuer string) *Validator {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &Validator{secret: []byte(secret), issuer: issuer}
}

// Validate parses and verifies a token string.
func (v *Validator) Validate(tokenStr string) (*Principal, error) {
	if v == nil {
		return nil, errors.New("validator uninitialized")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token subject is required")
	}
	return &Principal{
		ID:       claims.Subject,
		Username: claims.PreferredUsername,
		Roles:    claims.AllRoles(),
	}, nil
}

// RequireRole rejects requests without a valid bearer token carrying role.
// A nil validator fails closed.
func RequireRole(v *Validator, role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing Authorization header"})
		}
		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "expected 'Bearer <token>'"})
		}
		if v == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication not configured"})
		}

		p, err := v.Validate(strings.TrimSpace(tokenStr))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		if role != "" && !p.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}

		c.Locals(principalKey, p)
		return c.Next()
	}
}

// Optional stores the principal of a valid bearer token when one is sent.
// Requests without a usable token continue anonymously.
func Optional(v *Validator) fiber.Handler {
	return func(c fiber.Ctx) error {
		scheme, tokenStr, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || v == nil {
			return c.Next()
		}
		if p, err := v.Validate(strings.TrimSpace(tokenStr)); err == nil {
			c.Locals(principalKey, p)
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireRole, or nil.
func PrincipalFrom(c fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}
