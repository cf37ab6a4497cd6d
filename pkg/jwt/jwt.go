package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims de un access token de Supabase Auth. El subject es el id del usuario;
// colmado_id y rol viajan en app_metadata (los escribe el servidor, no el cliente).
type Claims struct {
	jwt.RegisteredClaims
	Email       string      `json:"email"`
	Role        string      `json:"role"` // "authenticated" para usuarios logueados
	AppMetadata AppMetadata `json:"app_metadata"`
}

// AppMetadata campos propios de la app dentro del token.
type AppMetadata struct {
	ColmadoID string `json:"colmado_id,omitempty"`
	Rol       string `json:"rol,omitempty"` // "owner" | "delivery"
}

// Identity datos del llamador extraídos de un token válido.
type Identity struct {
	UserID    string
	Email     string
	ColmadoID string
	Rol       string
}

// Generate firma un token con la misma forma que emite Supabase (uso en tests y herramientas locales).
func Generate(secret string, id Identity, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "supabase",
			Subject:   id.UserID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		Email:       id.Email,
		Role:        "authenticated",
		AppMetadata: AppMetadata{ColmadoID: id.ColmadoID, Rol: id.Rol},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida el token HS256 y devuelve la identidad del llamador.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Identity, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token sin subject")
	}
	return &Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		ColmadoID: claims.AppMetadata.ColmadoID,
		Rol:       claims.AppMetadata.Rol,
	}, nil
}
