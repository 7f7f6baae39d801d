package middleware

import (
	"net/http"
	"strings"

	"doctor-appointment-api/internal/authz"
	"doctor-appointment-api/internal/service"
	"doctor-appointment-api/pkg/jwt"
	"doctor-appointment-api/pkg/response"

	"github.com/sirupsen/logrus"
)

type AuthMiddleware struct {
	jwtService *jwt.JWTService
	tokenStore service.TokenStore
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, tokenStore service.TokenStore, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		tokenStore: tokenStore,
		log:        log,
	}
}

// Authenticate resolves the bearer token into an authz.Principal on the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// Revoked tokens are removed from the store
		exists, err := m.tokenStore.Exists(r.Context(), claims.UserID, claims.TokenID, jwt.AccessToken)
		if err != nil {
			m.log.Errorf("Failed to validate token %s: %+v", claims.TokenID, err)
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if !exists {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		ctx := authz.WithPrincipal(r.Context(), &authz.Principal{
			UserID:  claims.UserID,
			Email:   claims.Email,
			RoleID:  claims.RoleID,
			TokenID: claims.TokenID,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
