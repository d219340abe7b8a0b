package handler

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"go-ledger/common"
	"go-ledger/model"
)

// AuthMiddleware requires a valid HS256 bearer token signed with secret and
// carrying the ledger scope.
func AuthMiddleware(secret string, log logrus.FieldLogger) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fail := func(message string, err error) {
				common.NewAppError(http.StatusUnauthorized, message, err).Send(w, log)
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				fail("Authorization header is required", nil)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				fail("Invalid authorization header format", nil)
				return
			}

			claims := &model.AppClaims{}
			token, err := jwt.ParseWithClaims(headerParts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				fail("Invalid or expired token", err)
				return
			}
			if claims.Scope != model.LedgerScope {
				common.NewAppError(http.StatusForbidden, "Token does not grant access to the ledger API", nil).Send(w, log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
