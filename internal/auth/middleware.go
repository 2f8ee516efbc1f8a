package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the JWT "role" claim. The prototype let one session cycle
// through roles client-side; here the role is asserted by the token and
// checked at the route boundary.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
	RoleStaff     = "staff"
)

type contextKey string

const callerKey contextKey = "caller"

// Caller is the authenticated principal attached to the request context.
type Caller struct {
	UserID      string
	OrganizerID string
	Role        string
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// ExtractTokenFromRequest pulls the bearer token out of the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// ParseCaller verifies the token signature and extracts the caller identity.
func ParseCaller(tokenString, secret string) (Caller, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Caller{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Caller{}, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Caller{}, errors.New("subject claim not found in token")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleUser
	}
	organizerID, _ := claims["organizer_id"].(string)

	return Caller{UserID: sub, OrganizerID: organizerID, Role: role}, nil
}

// Middleware authenticates every request and stores the caller in context.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			caller, err := ParseCaller(rawToken, secret)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to the given roles. Must sit inside Middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

// CallerFromContext returns the authenticated caller, or a zero Caller for
// unauthenticated paths.
func CallerFromContext(ctx context.Context) Caller {
	if caller, ok := ctx.Value(callerKey).(Caller); ok {
		return caller
	}
	return Caller{}
}
