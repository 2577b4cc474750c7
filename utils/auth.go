// utils/auth.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"barberpro-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost for new hashes. Tests lower it.
var PasswordCost = 12

// Context keys set by AuthMiddleware.
const (
	CtxUserID   = "userId"
	CtxTenantID = "tenantId"
	CtxRole     = "role"
)

// Hash password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims carried by access tokens. TenantID is empty for ADMIN_GLOBAL.
type Claims struct {
	TenantID string      `json:"tenantId,omitempty"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Generate JWT token
func (i *TokenIssuer) Generate(user *models.User) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("JWT secret not set")
	}
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	if user.TenantID != nil {
		claims.TenantID = user.TenantID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	return claims, nil
}

// Auth middleware
func (i *TokenIssuer) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			AbortWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:6]) == "BEARER" {
			tokenString = tokenString[7:]
		}

		claims, err := i.Parse(tokenString)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		c.Set(CtxUserID, userID)
		c.Set(CtxRole, claims.Role)
		if claims.TenantID != "" {
			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				AbortWithError(c, http.StatusUnauthorized, "Invalid token claims")
				return
			}
			c.Set(CtxTenantID, tenantID)
		}

		c.Next()
	}
}

// RequireRole admits only the listed roles. Tenant-scoped roles must also
// carry a tenant claim.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(CtxRole)
		r, _ := role.(models.Role)

		switch r {
		case models.RoleAdminGlobal:
		case models.RoleTenantAdmin, models.RoleBarber:
			if _, ok := c.Get(CtxTenantID); !ok {
				AbortWithError(c, http.StatusForbidden, "Token is not bound to a tenant")
				return
			}
		default:
			AbortWithError(c, http.StatusForbidden, "Unknown role")
			return
		}

		for _, a := range allowed {
			if a == r {
				c.Next()
				return
			}
		}
		AbortWithError(c, http.StatusForbidden, "Insufficient permissions")
	}
}

func CurrentUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(CtxUserID)
	id, _ := v.(uuid.UUID)
	return id
}

func CurrentTenantID(c *gin.Context) uuid.UUID {
	v, _ := c.Get(CtxTenantID)
	id, _ := v.(uuid.UUID)
	return id
}

func CurrentRole(c *gin.Context) models.Role {
	v, _ := c.Get(CtxRole)
	r, _ := v.(models.Role)
	return r
}
