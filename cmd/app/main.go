package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/external/coingate"
	"github.com/shillmonger/Shopdotfun-sub001/external/resend"

	"github.com/shillmonger/Shopdotfun-sub001/internal/db"
	"github.com/shillmonger/Shopdotfun-sub001/internal/repository"
	"github.com/shillmonger/Shopdotfun-sub001/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	// ======================
	// INFRA
	// ======================
	pool, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal(err)
	}

	// ======================
	// EXTERNALS
	// ======================
	var mailer services.Mailer
	if os.Getenv("USE_EMAIL_NOTIFICATIONS") == "true" {
		m, err := resend.NewResendMailer("Shopdotfun<notify@shopdotfun.app>")
		if err != nil {
			log.Fatal(err)
		}
		mailer = m
	}

	gateway, err := coingate.NewClient()
	if err != nil {
		log.Fatal(err)
	}

	// ======================
	// REPOSITORIES
	// ======================
	paymentRepo := repository.NewPaymentRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	buyerRepo := repository.NewBuyerRepository(pool)
	sellerRepo := repository.NewSellerRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// ======================
	// SERVICES
	// ======================
	notifySvc := services.NewNotificationService(notificationRepo, mailer)
	settlementSvc := services.NewSettlementService(
		paymentRepo, orderRepo, buyerRepo, sellerRepo, notifySvc,
		services.CommissionRateFromEnv(),
	)
	orderSvc := services.NewOrderService(orderRepo, notifySvc, autoConfirmWindow())
	disputeSvc := services.NewDisputeService(orderRepo, sellerRepo, notifySvc, gateway)
	payoutSvc := services.NewPayoutService(sellerRepo, notifySvc)

	// ======================
	// ECHO
	// ======================
	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	api := e.Group("/shopdotfun")

	// ======================
	// ROUTES (ONLY REGISTRATION)
	// ======================
	registerPaymentRoutes(api, settlementSvc)
	registerOrderRoutes(api, orderSvc, disputeSvc)
	registerDisputeRoutes(api, disputeSvc)
	registerPayoutRoutes(api, payoutSvc)
	registerNotificationRoutes(api, notifySvc)

	// ======================
	// SERVER
	// ======================
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func autoConfirmWindow() time.Duration {
	days := 7
	if v := os.Getenv("AUTO_CONFIRM_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		} else {
			log.Printf("invalid AUTO_CONFIRM_DAYS %q, using %d", v, days)
		}
	}
	return time.Duration(days) * 24 * time.Hour
}

// httpError maps the service error taxonomy onto HTTP responses.
func httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyFinalized),
		errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrOrderFinalized):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, services.ErrValidationFailed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}
