// Package authmw provides a ready-made auth middleware for schema routes,
// generalizing the teacher's internal/pkg/jwt.Service + internal/middleware
// Auth() into a single s3up.MiddlewareFunc: a convenience, not a
// requirement, since spec §4.D leaves middleware as arbitrary functions.
package authmw

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/s3up-go/s3up"
)

// Claims is the minimal claim set this middleware extracts into route
// metadata; callers needing more should write their own MiddlewareFunc.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireBearerJWT returns a MiddlewareFunc that rejects requests missing a
// valid "Authorization: Bearer <token>" header, and otherwise adds userId
// (and role, if present) to the route's accumulated metadata. A rejection
// here is converted to AuthError → HTTP 401 by the router, matching spec
// §4.D's documented middleware convention.
func RequireBearerJWT(secret string) s3up.MiddlewareFunc {
	key := []byte(secret)
	return func(ctx *s3up.RequestContext) (map[string]string, error) {
		if ctx.Request == nil {
			return nil, errors.New("authorization required")
		}
		header := ctx.Request.Header.Get("Authorization")
		if header == "" {
			return nil, errors.New("authorization required")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, errors.New("invalid authorization header format")
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, errors.New("token expired")
			}
			return nil, errors.New("invalid token")
		}

		meta := map[string]string{"userId": claims.UserID}
		if claims.Role != "" {
			meta["role"] = claims.Role
		}
		return meta, nil
	}
}
