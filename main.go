package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/controllers"
	"barberpro-backend/events"
	"barberpro-backend/routes"
	"barberpro-backend/services"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := config.NewLogger("barberpro-api")
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer rabbit.Close()
		publisher = rabbit
	}

	var limiter *utils.RedisRateLimiter
	rdb, err := config.NewRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		limiter = utils.NewRedisRateLimiter(rdb, cfg.PublicRateLimit, cfg.RateLimitWindow, "barberpro:rl")
	}

	deps := services.Deps{DB: db, Logger: logger, Publisher: publisher}
	tenants := services.NewTenantService(deps)
	if err := tenants.EnsureGlobalAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	var sender services.MessageSender = services.NopSender{}
	if cfg.HasTwilio() {
		sender = services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.TwilioWhatsAppNumber)
	} else {
		logger.Warn("twilio not configured, reminders will not be delivered")
	}
	loc, _ := time.LoadLocation(cfg.Timezone)
	reminders := services.NewReminderService(deps, sender, loc)
	scheduler, err := reminders.StartScheduler(ctx, cfg.ReminderSchedule)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	h := &controllers.Handler{
		Tenants:       tenants,
		Staff:         services.NewStaffService(deps),
		Catalog:       services.NewCatalogService(deps),
		Slots:         services.NewSlotService(deps),
		Bookings:      services.NewBookingService(deps),
		Cash:          services.NewCashService(deps),
		Payments:      services.NewPaymentService(deps),
		Expenses:      services.NewExpenseService(deps),
		Reports:       services.NewReportService(deps),
		Reminders:     reminders,
		Tokens:        utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Logger:        logger,
		SecureCookies: true,
	}

	r := routes.SetupRouter(h, cfg, limiter, logger)
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
