package mockjudge

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ojclient/internal/cli/api"
	"ojclient/pkg/errors"
	"ojclient/pkg/utils/contextkey"
	"ojclient/pkg/utils/logger"
	"ojclient/pkg/utils/response"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	ctxUserKey       = "mockjudge.user"
)

type tokenClaims struct {
	TokenType string `json:"token_type"`
	Gen       int    `json:"gen,omitempty"`
	jwt.RegisteredClaims
}

func (s *Server) mintLocked(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if tokenType == tokenTypeAccess {
		claims.Gen = s.accessGen
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
}

func (s *Server) tokenPairLocked(userID int64) (api.Tokens, error) {
	access, err := s.mintLocked(userID, tokenTypeAccess, s.opts.AccessTTL)
	if err != nil {
		return api.Tokens{}, err
	}
	refresh, err := s.mintLocked(userID, tokenTypeRefresh, s.opts.RefreshTTL)
	if err != nil {
		return api.Tokens{}, err
	}
	return api.Tokens{Access: access, Refresh: refresh}, nil
}

// parse validates signature, expiry and type; callers hold no lock.
func (s *Server) parse(raw, wantType string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.opts.Secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New(errors.TokenExpired)
		}
		return nil, errors.New(errors.TokenInvalid)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.TokenType != wantType {
		return nil, errors.New(errors.TokenInvalid)
	}
	return claims, nil
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			response.AbortWithDetail(c, http.StatusUnauthorized, "Authentication credentials were not provided.", "not_authenticated")
			return
		}
		claims, err := s.parse(raw, tokenTypeAccess)
		if err != nil {
			response.AbortWithDetail(c, http.StatusUnauthorized, "Given token not valid for any token type", "token_not_valid")
			return
		}
		userID, _ := strconv.ParseInt(claims.Subject, 10, 64)

		s.mu.Lock()
		stale := claims.Gen < s.accessGen
		user, found := s.userByIDLocked(userID)
		s.mu.Unlock()
		if stale || !found {
			response.AbortWithDetail(c, http.StatusUnauthorized, "Given token not valid for any token type", "token_not_valid")
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) api.User {
	v, _ := c.Get(ctxUserKey)
	u, _ := v.(api.User)
	return u
}

func (s *Server) userByIDLocked(id int64) (api.User, bool) {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return api.User{}, false
}

func extractBearerToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// traceMiddleware propagates X-Request-ID into the request context and counts route hits.
func (s *Server) traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), contextkey.TraceID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		s.mu.Lock()
		s.hits[c.Request.Method+" "+c.FullPath()]++
		s.mu.Unlock()
		logger.Info(ctx, "request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
