package rest

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Clé privée pour le contexte (évite les collisions)
type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// devUserHeader n'est lu que lorsqu'aucune clé publique n'est configurée (env local).
const devUserHeader = "X-User-ID"

// UserClaims : claims émis par l'identity-service
type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenVerifier valide les access tokens RS256 avec la clé publique de l'identity-service.
// Le service social ne signe jamais de token.
type TokenVerifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

func NewTokenVerifier(publicKeyPEM []byte, issuer string) (*TokenVerifier, error) {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &TokenVerifier{publicKey: pubKey, issuer: issuer}, nil
}

// Validate vérifie la signature et retourne l'UserID (Subject)
func (v *TokenVerifier) Validate(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
		// Refuse "none" / HS256 : seule la clé publique RSA est acceptée
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}, opts...)
	if err != nil {
		return "", err // Token expiré ou signature invalide
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	if claims.UserID != "" {
		return claims.UserID, nil
	}
	return "", errors.New("token has no subject")
}

// Middleware exige un principal sur toutes les routes /v1.
// verifier nil = mode dev : le principal vient du header X-User-ID.
func Middleware(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string

			if verifier == nil {
				userID = strings.TrimSpace(r.Header.Get(devUserHeader))
			} else {
				header := r.Header.Get("Authorization")
				tokenStr, ok := strings.CutPrefix(header, "Bearer ")
				if !ok {
					writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{Code: "unauthorized", Message: "missing or malformed bearer token"}})
					return
				}
				id, err := verifier.Validate(tokenStr)
				if err != nil {
					writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{Code: "unauthorized", Message: "invalid or expired token"}})
					return
				}
				userID = id
			}

			if userID == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{Code: "unauthorized", Message: "authentication required"}})
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ForContext récupère l'ID du principal authentifié
func ForContext(ctx context.Context) string {
	raw, _ := ctx.Value(userCtxKey).(string)
	return raw
}
