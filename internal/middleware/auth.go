package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Azoup/zpfbi/internal/apierror"
	"github.com/Azoup/zpfbi/internal/session"
)

const (
	ClaimsKey = "claims"
	SessaoKey = "sessao"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Perfil   string `json:"perfil"`
	API      string `json:"api"`
	SessaoID string `json:"sessao_id"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route and attaches the
// live session it points at. A token whose session was already cleared (logout,
// restart) is rejected even when the signature is still valid.
func JWTAuth(secret string, sessoes *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticação requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido ou expirado"))
			return
		}

		sessaoID, err := uuid.Parse(claims.SessaoID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
			return
		}
		sessao, ok := sessoes.Obter(sessaoID)
		if !ok || sessao.Estado() != session.LoggedIn {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Sessão encerrada, faça login novamente"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(SessaoKey, sessao)
		c.Next()
	}
}

// RequirePerfil rejects requests whose JWT perfil is not in the allowed list.
func RequirePerfil(perfis ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(perfis))
	for _, p := range perfis {
		allowed[p] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Perfil] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permissões insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// GetSessao retrieves the live session attached by JWTAuth.
func GetSessao(c *gin.Context) *session.Sessao {
	s, _ := c.MustGet(SessaoKey).(*session.Sessao)
	return s
}
