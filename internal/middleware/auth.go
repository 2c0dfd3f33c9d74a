package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Glivan2903/fazendo-90/pkg/utils"
)

const (
	localUserID = "user_id"
	localRole   = "role"
)

var errMissingToken = errors.New("missing token")

func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		claims, err := parseBearer(authHeader, secret)
		if err != nil {
			message := "Invalid or expired token"
			switch {
			case errors.Is(err, errMissingToken):
				message = "Invalid authorization header format"
			case errors.Is(err, jwt.ErrTokenExpired):
				message = "Token has expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": message})
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, claims.Role)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous or badly authenticated requests through as anonymous.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		if claims, err := parseBearer(authHeader, secret); err == nil {
			c.Locals(localUserID, claims.UserID)
			c.Locals(localRole, claims.Role)
		}
		return c.Next()
	}
}

// RequireRole must run after AuthRequired.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := Role(c)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	}
}

// UserID returns the authenticated user, if any.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	raw, ok := c.Locals(localUserID).(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func Role(c *fiber.Ctx) string {
	role, _ := c.Locals(localRole).(string)
	return role
}

func parseBearer(header, secret string) (*utils.Claims, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, errMissingToken
	}
	claims, err := utils.ValidateToken(parts[1], secret)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, err
	}
	return claims, nil
}
