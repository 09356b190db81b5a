/**
 * @description
 * Authentication middleware for the narration service: merchant JWTs verified
 * against a JWKS endpoint, and a shared key for server-to-server calls.
 */
package api

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
)

type contextKey string

// MerchantIDContextKey is the key used to store the merchant ID in the request context.
const MerchantIDContextKey = contextKey("merchantID")

const jwksCacheTTL = 10 * time.Minute

// KeySource resolves the RSA public key for a token key id.
type KeySource struct {
	jwksURL    string
	httpClient *http.Client
	keys       *gocache.Cache
}

// NewKeySource creates a JWKS-backed key source. Keys are cached per kid.
func NewKeySource(jwksURL string) *KeySource {
	return &KeySource{
		jwksURL:    strings.TrimSpace(jwksURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		keys:       gocache.New(jwksCacheTTL, 2*jwksCacheTTL),
	}
}

// PublicKey returns the key for kid, refreshing the JWKS document on a miss.
func (s *KeySource) PublicKey(kid string) (*rsa.PublicKey, error) {
	if cached, ok := s.keys.Get(kid); ok {
		return cached.(*rsa.PublicKey), nil
	}
	if s.jwksURL == "" {
		return nil, fmt.Errorf("jwks url is not configured")
	}

	resp, err := s.httpClient.Get(s.jwksURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, err
	}

	var found *rsa.PublicKey
	for _, key := range jwks.Keys {
		if key.Kty != "" && key.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(key.N, key.E)
		if err != nil {
			continue
		}
		s.keys.SetDefault(key.Kid, pub)
		if key.Kid == kid {
			found = pub
		}
	}
	if found == nil {
		return nil, fmt.Errorf("key with kid %s not found", kid)
	}
	return found, nil
}

// MerchantAuthMiddleware validates merchant JWTs and injects the merchant ID into context.
func MerchantAuthMiddleware(keys *KeySource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				kid, ok := token.Header["kid"].(string)
				if !ok {
					return nil, fmt.Errorf("kid not found in token header")
				}
				publicKey, err := keys.PublicKey(kid)
				if err != nil {
					return nil, fmt.Errorf("failed to get public key: %w", err)
				}
				return publicKey, nil
			}, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			merchantID, err := token.Claims.GetSubject()
			if err != nil || merchantID == "" {
				writeError(w, http.StatusUnauthorized, "Merchant ID not found in token")
				return
			}

			ctx := context.WithValue(r.Context(), MerchantIDContextKey, merchantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InternalAuthMiddleware validates the internal API key for server-to-server calls.
// An empty required key leaves the routes open, matching local development.
func InternalAuthMiddleware(requiredKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiredKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Internal-API-Key")
			if provided == "" || provided != requiredKey {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MerchantFromContext retrieves the merchant ID from the request context.
func MerchantFromContext(ctx context.Context) (string, bool) {
	merchantID, ok := ctx.Value(MerchantIDContextKey).(string)
	return merchantID, ok
}

func parseRSAPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var exp int
	for _, b := range eb {
		exp = exp<<8 | int(b)
	}
	if exp == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: exp}, nil
}
