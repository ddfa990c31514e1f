package main

import (
	"errors"
	"net/http"

	"github.com/shillmonger/Shopdotfun-sub001/internal/middleware"
	"github.com/shillmonger/Shopdotfun-sub001/internal/services"

	"github.com/labstack/echo/v4"
)

func registerPaymentRoutes(g *echo.Group, ss *services.SettlementService) {
	p := g.Group("/payments")
	p.Use(middleware.JWTMiddleware())

	// ============================
	// PAYMENT INTAKE (buyer)
	// ============================
	p.POST("", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		if cl == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}

		var in services.PaymentIntake
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
		}

		payment, err := ss.SubmitPayment(c.Request().Context(), cl.Email, in)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusCreated, payment)
	})

	p.GET("/:paymentId", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		payment, err := ss.GetPayment(c.Request().Context(), c.Param("paymentId"))
		if err != nil {
			return httpError(c, err)
		}
		if cl.Role != "admin" && payment.BuyerEmail != cl.Email {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusOK, payment)
	})

	// ============================
	// SETTLEMENT (admin)
	// ============================
	p.GET("/pending", middleware.AdminOnly(func(c echo.Context) error {
		payments, err := ss.ListPending(c.Request().Context())
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, payments)
	}))

	p.POST("/:paymentId/approve", middleware.AdminOnly(func(c echo.Context) error {
		cl := middleware.GetClaims(c)

		payment, orderIDs, err := ss.Approve(c.Request().Context(), c.Param("paymentId"), cl.Email)

		var partial *services.PartialFanOutFailure
		if errors.As(err, &partial) {
			// Degraded success: the approval stands; the operator re-runs
			// fan-out for the failed lines.
			return c.JSON(http.StatusOK, echo.Map{
				"status":              "partially_settled",
				"payment":             payment,
				"order_ids":           orderIDs,
				"failed_lines":        partial.FailedProducts,
				"buyer_credit_failed": partial.BuyerCreditFailed,
			})
		}
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":    "settled",
			"payment":   payment,
			"order_ids": orderIDs,
		})
	}))

	p.POST("/:paymentId/reject", middleware.AdminOnly(func(c echo.Context) error {
		cl := middleware.GetClaims(c)

		var body struct {
			Reason string `json:"reason"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
		}

		payment, err := ss.Reject(c.Request().Context(), c.Param("paymentId"), cl.Email, body.Reason)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, payment)
	}))

	p.POST("/:paymentId/refanout", middleware.AdminOnly(func(c echo.Context) error {
		orderIDs, err := ss.Refanout(c.Request().Context(), c.Param("paymentId"))

		var partial *services.PartialFanOutFailure
		if errors.As(err, &partial) {
			return c.JSON(http.StatusOK, echo.Map{
				"status":              "partially_settled",
				"order_ids":           orderIDs,
				"failed_lines":        partial.FailedProducts,
				"buyer_credit_failed": partial.BuyerCreditFailed,
			})
		}
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":    "settled",
			"order_ids": orderIDs,
		})
	}))
}
