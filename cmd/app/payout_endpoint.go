package main

import (
	"net/http"

	"github.com/shillmonger/Shopdotfun-sub001/internal/middleware"
	"github.com/shillmonger/Shopdotfun-sub001/internal/services"

	"github.com/labstack/echo/v4"
)

func registerPayoutRoutes(g *echo.Group, ps *services.PayoutService) {
	p := g.Group("/payouts")
	p.Use(middleware.JWTMiddleware())

	// Seller's payout ledger.
	p.GET("", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		if cl == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}
		entries, err := ps.ListEntries(c.Request().Context(), cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, entries)
	})

	// Seller requests release of one order's earnings.
	p.POST("/:orderId/request", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		entry, err := ps.RequestPayout(c.Request().Context(), cl.Email, c.Param("orderId"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, entry)
	})

	// Admin confirms the transfer went out.
	p.POST("/entries/:entryId/paid", middleware.AdminOnly(func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		entry, err := ps.MarkPaid(c.Request().Context(), c.Param("entryId"), cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, entry)
	}))
}
