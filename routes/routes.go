package routes

import (
	"log/slog"
	"net/http"

	"barberpro-backend/config"
	"barberpro-backend/controllers"
	"barberpro-backend/models"
	"barberpro-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(h *controllers.Handler, cfg *config.Config, limiter *utils.RedisRateLimiter, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := map[string]bool{}
	for _, o := range cfg.AllowedOrigins {
		origins[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origins[origin]
		},
	}))

	r.Use(config.PerformanceLogger(logger, cfg.SlowRequest))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/public/:slug")
	if limiter != nil {
		public.Use(limiter.Middleware(logger))
	}
	{
		public.GET("", h.GetShop)
		public.GET("/availability", h.GetAvailability)
		public.POST("/bookings", h.CreateBooking)
	}

	auth := r.Group("/auth")
	{
		if limiter != nil {
			auth.POST("/login", limiter.Middleware(logger), h.Login)
		} else {
			auth.POST("/login", h.Login)
		}
		auth.POST("/logout", h.Logout)

		auth.Use(h.Tokens.AuthMiddleware())
		auth.GET("/me", h.Me)
	}

	api := r.Group("/api")
	api.Use(h.Tokens.AuthMiddleware(), utils.RequireRole(models.RoleTenantAdmin))
	{
		api.GET("/dashboard", h.GetDashboardOverview)
		api.GET("/reports", h.GetReportAnalytics)

		profile := api.Group("/profile")
		{
			profile.GET("", h.GetProfile)
			profile.PUT("", h.UpdateProfile)
		}

		staff := api.Group("/staff")
		{
			staff.POST("", h.CreateStaff)
			staff.GET("", h.ListStaff)
			staff.GET("/:id", h.GetStaff)
			staff.PUT("/:id", h.UpdateStaff)
			staff.DELETE("/:id", h.DeleteStaff)
		}

		services := api.Group("/services")
		{
			services.POST("", h.CreateService)
			services.GET("", h.GetServices)
			services.GET("/:id", h.GetService)
			services.PUT("/:id", h.UpdateService)
			services.DELETE("/:id", h.DeleteService)
		}

		slots := api.Group("/slots")
		{
			slots.POST("/generate", h.GenerateSlots)
			slots.GET("", h.ListSlots)
			slots.PATCH("/:id/toggle", h.ToggleSlot)
			slots.DELETE("/:id", h.DeleteSlot)
		}

		appointments := api.Group("/appointments")
		{
			appointments.GET("", h.GetAppointments)
			appointments.GET("/:id", h.GetAppointment)
			appointments.POST("/:id/complete", h.CompleteAppointment)
			appointments.POST("/:id/cancel", h.CancelAppointment)
		}

		cash := api.Group("/cash")
		{
			cash.POST("/open", h.OpenCashSession)
			cash.POST("/close", h.CloseCashSession)
			cash.GET("/current", h.GetCurrentCashSession)
			cash.GET("/history", h.GetCashHistory)
			cash.POST("/sync", h.SyncCashPayments)
			cash.GET("/sessions/:id", h.GetCashSession)
			cash.GET("/sessions/:id/reconcile", h.ReconcileCashSession)
			cash.POST("/sessions/:id/entries", h.RegisterCashEntry)
			cash.POST("/sessions/:id/exits", h.RegisterCashExit)
			cash.POST("/sessions/:id/adjustments", h.RegisterCashAdjustment)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", h.CreatePayment)
			payments.GET("", h.GetPayments)
			payments.POST("/:id/refund", h.RefundPayment)
		}

		expenses := api.Group("/expenses")
		{
			expenses.POST("", h.CreateExpense)
			expenses.GET("", h.GetExpenses)
		}

		reminders := api.Group("/reminders")
		{
			reminders.GET("/template", h.GetReminderTemplate)
			reminders.PUT("/template", h.SaveReminderTemplate)
			reminders.GET("/logs", h.GetReminderLogs)
		}
	}

	barber := r.Group("/barber")
	barber.Use(h.Tokens.AuthMiddleware(), utils.RequireRole(models.RoleBarber))
	{
		barber.GET("/appointments", h.GetMyAppointments)
		barber.GET("/appointments/:id", h.GetAppointment)
		barber.POST("/appointments/:id/complete", h.CompleteAppointment)
	}

	admin := r.Group("/admin")
	admin.Use(h.Tokens.AuthMiddleware(), utils.RequireRole(models.RoleAdminGlobal))
	{
		admin.POST("/tenants", h.CreateTenant)
		admin.GET("/tenants", h.ListTenants)
		admin.GET("/tenants/:id", h.GetTenantOverview)
		admin.POST("/tenants/:id/activate", h.ActivateTenant)
		admin.POST("/tenants/:id/deactivate", h.DeactivateTenant)
		admin.DELETE("/tenants/:id", h.DeleteTenant)
		admin.GET("/kpis", h.GetPlatformKPIs)
		admin.GET("/top-tenants", h.GetTopTenants)
		admin.POST("/reminders/run", h.RunReminders)
	}

	return r
}
