package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/colmado-api/internal/application/dto"
	"github.com/jhoicas/colmado-api/pkg/jwt"
)

// Locals keys que deja AuthMiddleware en Fiber.
const (
	LocalUserID      = "user_id"
	LocalColmadoID   = "colmado_id"
	LocalRole        = "role"
	LocalAccessToken = "access_token"
)

// AuthMiddleware valida el access token de Supabase (Bearer) y carga la identidad en c.Locals.
// El token crudo también se guarda: la función de alta de usuarios lo necesita.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalColmadoID, id.ColmadoID)
		c.Locals(LocalRole, id.Rol)
		c.Locals(LocalAccessToken, tokenString)
		return c.Next()
	}
}

// RequireRole deja pasar solo a los roles indicados. Debe ir después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no tiene rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no tiene permiso para esta operación"})
	}
}

// RequireColmado verifica que el :colmadoId de la ruta sea el colmado del token.
func RequireColmado(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetColmadoID(c) == "" || c.Params(param) != GetColmadoID(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el colmado no corresponde al usuario"})
		}
		return c.Next()
	}
}

// RequireColmadoClaim exige que el token traiga colmado_id; los productos se acotan a él.
func RequireColmadoClaim() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetColmadoID(c) == "" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el usuario no pertenece a ningún colmado"})
		}
		return c.Next()
	}
}

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetUserID devuelve el id del usuario autenticado.
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetColmadoID devuelve el colmado del usuario autenticado.
func GetColmadoID(c *fiber.Ctx) string { return localString(c, LocalColmadoID) }

// GetRole devuelve el rol dentro del colmado ("owner" | "delivery").
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetAccessToken devuelve el token crudo del llamador.
func GetAccessToken(c *fiber.Ctx) string { return localString(c, LocalAccessToken) }
