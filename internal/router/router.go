package router

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"flick_shop/internal/audit"
	"flick_shop/internal/config"
	"flick_shop/internal/middleware"
	"flick_shop/internal/model"
	"flick_shop/internal/service"
	"flick_shop/internal/store"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Setup 注册全部 HTTP 路由。
// 响应信封统一为 {success, message?, data?}，前端与管理端共用该契约。
func Setup(r *gin.Engine, db *gorm.DB, rdb *rd.Client, recorder audit.Recorder, cfg config.AppConfig, log *slog.Logger) {
	checkout := service.NewCheckout(db, log)
	lifecycle := service.NewLifecycle(db, recorder, log)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	api := r.Group("/api")

	// 下单同时开放给游客与登录用户；限流按账号或 IP。
	checkoutGroup := api.Group("/orders",
		middleware.OptionalUserAuth(cfg.JWTSecret),
		middleware.CheckoutRateLimit(rdb, cfg.CheckoutRateLimit, cfg.CheckoutRateWindow),
	)
	checkoutGroup.POST("", createOrder(checkout, log))
	checkoutGroup.POST("/direct", createDirectOrder(checkout, log))

	// 自己的订单：必须登录。
	own := api.Group("/orders", middleware.RequireUserAuth(cfg.JWTSecret))
	own.GET("", listOwnOrders(db, log))
	own.GET("/:id", getOwnOrder(db, log))
	own.POST("/:id/cancel", cancelOrder(lifecycle, log))

	admin := api.Group("/admin", middleware.RequireAdminAuth(cfg.JWTSecret))
	admin.GET("/orders", adminListOrders(db, log))
	admin.GET("/orders/:id", adminGetOrder(db, log))
	admin.PUT("/orders/:id/confirm", adminConfirmOrder(lifecycle, log))
	admin.PUT("/orders/:id/reject", adminRejectOrder(lifecycle, log))
	admin.PUT("/orders/:id/status", adminUpdateStatus(lifecycle, log))
	admin.GET("/stats", adminStats(db, log))
	admin.GET("/users", adminListUsers(db, log))
	admin.DELETE("/users/:id", middleware.RequireSuperAdmin(), adminDeleteUser(lifecycle, log))
}

type lineReq struct {
	ProductID     uint   `json:"productId"`
	Quantity      int64  `json:"quantity"`
	SelectedSize  string `json:"selectedSize"`
	SelectedColor string `json:"selectedColor"`
}

type shippingReq struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

func (s shippingReq) toInput() service.ShippingInput {
	return service.ShippingInput{
		Name:    s.Name,
		Phone:   s.Phone,
		Email:   s.Email,
		Address: s.Address,
		City:    s.City,
		State:   s.State,
		Zip:     s.Zip,
		Country: s.Country,
	}
}

// createOrder 购物车结算下单：整车商品 + 收货信息；
// 登录用户成功后在同一事务内清空其购物车。
func createOrder(checkout *service.Checkout, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items         []lineReq   `json:"items"`
			Shipping      shippingReq `json:"shippingInfo"`
			PaymentMethod string      `json:"paymentMethod"`
			Notes         string      `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		var userID *uint
		clearCart := false
		if id, ok := middleware.UserID(c); ok {
			userID = &id
			clearCart = true
		}

		lines := make([]service.LineInput, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, service.LineInput{
				ProductID:     it.ProductID,
				Quantity:      it.Quantity,
				SelectedSize:  it.SelectedSize,
				SelectedColor: it.SelectedColor,
			})
		}

		order, err := checkout.Create(c.Request.Context(), service.CreateOrderInput{
			UserID:        userID,
			Lines:         lines,
			Shipping:      req.Shipping.toInput(),
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
			ClearCart:     clearCart,
		})
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Order created successfully",
			"data":    order,
		})
	}
}

// createDirectOrder 单商品直购，游客可用；成功只回订单号与总额。
func createDirectOrder(checkout *service.Checkout, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProductID     uint        `json:"productId"`
			Quantity      int64       `json:"quantity"`
			SelectedSize  string      `json:"selectedSize"`
			SelectedColor string      `json:"selectedColor"`
			Shipping      shippingReq `json:"shippingInfo"`
			PaymentMethod string      `json:"paymentMethod"`
			Notes         string      `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		var userID *uint
		if id, ok := middleware.UserID(c); ok {
			userID = &id
		}

		order, err := checkout.CreateDirect(c.Request.Context(), userID, service.LineInput{
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			SelectedSize:  req.SelectedSize,
			SelectedColor: req.SelectedColor,
		}, req.Shipping.toInput(), req.PaymentMethod, req.Notes)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Order placed successfully",
			"data": gin.H{
				"id":           order.ID,
				"order_number": order.OrderNumber,
				"total_amount": order.TotalAmount,
			},
		})
	}
}

func listOwnOrders(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		list, err := store.NewOrders(db).ListByUser(c.Request.Context(), userID)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
	}
}

func getOwnOrder(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		id, ok := paramID(c)
		if !ok {
			return
		}
		order, err := store.NewOrders(db).GetOwned(c.Request.Context(), id, userID)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
	}
}

func cancelOrder(lifecycle *service.Lifecycle, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := lifecycle.Cancel(c.Request.Context(), id, userID); err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order cancelled successfully"})
	}
}

func adminListOrders(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		status := model.OrderStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			fail(c, http.StatusBadRequest, "invalid status filter")
			return
		}

		// 回显与查询共用归一化后的分页参数，limit=0 之类的脏值在这里拦住。
		filter := store.AdminFilter{
			Page:   page,
			Limit:  limit,
			Status: status,
			Search: c.Query("search"),
		}.Normalize()

		list, total, err := store.NewOrders(db).ListAdmin(c.Request.Context(), filter)
		if err != nil {
			failErr(c, err, log)
			return
		}
		pages := (total + int64(filter.Limit) - 1) / int64(filter.Limit)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"orders": list,
				"pagination": gin.H{
					"page":  filter.Page,
					"limit": filter.Limit,
					"total": total,
					"pages": pages,
				},
			},
		})
	}
}

func adminGetOrder(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		order, err := store.NewOrders(db).GetByID(c.Request.Context(), id)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
	}
}

func adminConfirmOrder(lifecycle *service.Lifecycle, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req struct {
			Notes string `json:"notes"`
		}
		_ = c.ShouldBindJSON(&req) // body 可以为空

		err := lifecycle.Confirm(c.Request.Context(), id, middleware.AdminID(c), req.Notes)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order confirmed successfully"})
	}
}

func adminRejectOrder(lifecycle *service.Lifecycle, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
			Notes  string `json:"notes"`
		}
		_ = c.ShouldBindJSON(&req)
		reason := req.Reason
		if reason == "" {
			reason = req.Notes
		}

		err := lifecycle.Reject(c.Request.Context(), id, middleware.AdminID(c), reason)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order rejected and stock restored"})
	}
}

func adminUpdateStatus(lifecycle *service.Lifecycle, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req struct {
			Status string `json:"status"`
			Notes  string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		err := lifecycle.UpdateStatus(c.Request.Context(), id, middleware.AdminID(c),
			model.OrderStatus(req.Status), req.Notes)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order status updated successfully"})
	}
}

func adminStats(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.LoadStats(c.Request.Context(), db)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	}
}

func adminListUsers(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		list, total, err := store.NewUsers(db).List(c.Request.Context(), page, limit)
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"users": list,
				"total": total,
			},
		})
	}
}

func adminDeleteUser(lifecycle *service.Lifecycle, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		err := lifecycle.DeleteUser(c.Request.Context(), id, middleware.AdminID(c))
		if err != nil {
			failErr(c, err, log)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
	}
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// failErr 把业务错误映射到 HTTP 状态码：
// 校验 / 非法转移 / 库存不足 → 400（库存不足带独立文案，前端可提示减量）；
// 资源不存在 → 404；状态被并发改走 → 409；其余按内部错误处理。
func failErr(c *gin.Context, err error, log *slog.Logger) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrMissingReason),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrUserHasOrders),
		errors.Is(err, store.ErrProductInactive),
		errors.Is(err, store.ErrInsufficientStock):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrProductNotFound),
		errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrUserNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrStatusConflict):
		fail(c, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", "path", c.FullPath(), "err", err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
