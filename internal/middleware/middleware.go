package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-baseline/internal/shared/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger 日志中间件
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString("request_id")),
		}

		if userID, exists := c.Get("user_id"); exists {
			fields = append(fields, zap.String("user_id", userID.(string)))
		}

		if status >= 500 {
			logger.Error("Server error", fields...)
		} else if status >= 400 {
			logger.Warn("Client error", fields...)
		} else {
			logger.Info("Request", fields...)
		}
	}
}

// Metrics 请求计数与耗时（按路由模板统计）
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// 基线域权限与角色
const (
	PermBaselineRead  = "baseline:read"
	PermBaselineWrite = "baseline:write"
	PermAll           = "*"

	RoleBaselineAdmin = "baseline_admin"
	// AdminRole 拥有全部角色权限
	AdminRole = "plm_admin"
)

// JWTClaims 基线服务令牌声明
type JWTClaims struct {
	UserID      string   `json:"uid"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

// bearerToken 从 Authorization 头读取令牌，回退到 query（SSE 无法设置请求头）
func bearerToken(c *gin.Context) string {
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && scheme == "Bearer" {
		return token
	}
	return c.Query("token")
}

func unauthorized(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": code, "message": message})
}

// JWTAuth 校验 HS256 令牌并写入用户上下文
func JWTAuth(secret string) gin.HandlerFunc {
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			unauthorized(c, 40100, "Authorization is required")
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			unauthorized(c, 40102, "Invalid or expired token")
			return
		}
		if claims.UserID == "" {
			unauthorized(c, 40103, "Invalid token claims")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("user_email", claims.Email)
		c.Set("roles", claims.Roles)
		c.Set("permissions", claims.Permissions)
		c.Set("claims", claims)
		c.Next()
	}
}

// grant 描述一类授权检查：上下文键、通配值与错误码基数
type grant struct {
	key      string
	wildcard string
	label    string
	code     int
}

var (
	permissionGrant = grant{key: "permissions", wildcard: PermAll, label: "Permission denied", code: 40300}
	roleGrant       = grant{key: "roles", wildcard: AdminRole, label: "Role required", code: 40310}
)

func (g grant) require(want string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(g.key)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": g.code, "message": "No " + g.key + " found"})
			return
		}
		held, ok := raw.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": g.code + 1, "message": "Invalid " + g.key + " format"})
			return
		}
		for _, h := range held {
			if h == want || h == g.wildcard {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": g.code + 2, "message": g.label + ": " + want})
	}
}

// RequirePermission 权限检查中间件，"*" 放行全部
func RequirePermission(permission string) gin.HandlerFunc {
	return permissionGrant.require(permission)
}

// RequireRole 角色检查中间件，AdminRole 放行全部
func RequireRole(role string) gin.HandlerFunc {
	return roleGrant.require(role)
}
