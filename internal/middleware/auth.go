package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// 认证与会话签发属于外部子系统，这里只消费其产物：
// Bearer JWT 里带的主体 id（用户）或 id+role（管理员）。

const (
	ctxUserID    = "auth_user_id"
	ctxAdminID   = "auth_admin_id"
	ctxAdminRole = "auth_admin_role"

	// RoleSuperAdmin 可执行破坏性管理操作（如删除用户）。
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
)

type userClaims struct {
	ID uint `json:"id"`
	jwt.RegisteredClaims
}

type adminClaims struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OptionalUserAuth 解析用户令牌；没带或无效一律按游客放行。
// 下单接口同时服务游客与登录用户，靠它拿可选主体。
func OptionalUserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := parseUserToken(c, secret); err == nil {
			c.Set(ctxUserID, claims.ID)
		}
		c.Next()
	}
}

// RequireUserAuth 必须携带有效用户令牌。
func RequireUserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseUserToken(c, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication required",
			})
			return
		}
		c.Set(ctxUserID, claims.ID)
		c.Next()
	}
}

// RequireAdminAuth 必须携带有效管理员令牌，角色须为 admin / super_admin。
func RequireAdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "admin authentication required",
			})
			return
		}
		var claims adminClaims
		if err := parseHMAC(raw, secret, &claims); err != nil || claims.ID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid admin token",
			})
			return
		}
		if claims.Role != RoleAdmin && claims.Role != RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "admin role required",
			})
			return
		}
		c.Set(ctxAdminID, claims.ID)
		c.Set(ctxAdminRole, claims.Role)
		c.Next()
	}
}

// RequireSuperAdmin 置于 RequireAdminAuth 之后，进一步限定 super_admin。
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if AdminRole(c) != RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "super admin role required",
			})
			return
		}
		c.Next()
	}
}

// UserID 取当前请求的用户主体；ok=false 表示游客。
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// AdminID 取当前请求的管理员主体（中间件保证存在）。
func AdminID(c *gin.Context) uint {
	v, _ := c.Get(ctxAdminID)
	id, _ := v.(uint)
	return id
}

// AdminRole 取当前管理员角色。
func AdminRole(c *gin.Context) string {
	v, _ := c.Get(ctxAdminRole)
	role, _ := v.(string)
	return role
}

func parseUserToken(c *gin.Context, secret string) (*userClaims, error) {
	raw, ok := bearerToken(c)
	if !ok {
		return nil, fmt.Errorf("no bearer token")
	}
	var claims userClaims
	if err := parseHMAC(raw, secret, &claims); err != nil {
		return nil, err
	}
	if claims.ID == 0 {
		return nil, fmt.Errorf("token has no subject id")
	}
	return &claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func parseHMAC(raw, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// SignUserToken 为用户主体签发令牌（登录子系统与测试用）。
func SignUserToken(secret string, userID uint) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims{ID: userID})
	return t.SignedString([]byte(secret))
}

// SignAdminToken 为管理员主体签发令牌。
func SignAdminToken(secret string, adminID uint, role string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims{ID: adminID, Role: role})
	return t.SignedString([]byte(secret))
}
