package service

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RoleGuest es el rol por defecto cuando no hay token o no es valido.
const RoleGuest = "guest"

// TokenService extrae el rol de un access token. Este nucleo no
// autentica: solo consume el claim de rol para estampar las solicitudes
// al clasificador.
type TokenService struct {
	secret []byte
}

// Claims son los unicos claims que este servicio consume.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var ErrTokenInvalid = errors.New("token invalid")

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// ParseRole devuelve el rol declarado en el token. Cualquier fallo de
// parseo o firma degrada a RoleGuest sin error visible al usuario.
func (s *TokenService) ParseRole(token string) string {
	claims, err := s.parse(token)
	if err != nil || strings.TrimSpace(claims.Role) == "" {
		return RoleGuest
	}
	return claims.Role
}

func (s *TokenService) parse(token string) (Claims, error) {
	if s == nil || len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return Claims{}, ErrTokenInvalid
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
