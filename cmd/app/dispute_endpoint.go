package main

import (
	"net/http"

	"github.com/shillmonger/Shopdotfun-sub001/internal/middleware"
	"github.com/shillmonger/Shopdotfun-sub001/internal/services"

	"github.com/labstack/echo/v4"
)

func registerDisputeRoutes(g *echo.Group, ds *services.DisputeService) {
	d := g.Group("/disputes")
	d.Use(middleware.JWTMiddleware())

	// Admin verdict: refund, release or split. Single-shot per order.
	d.POST("/:orderId/resolve", middleware.AdminOnly(func(c echo.Context) error {
		cl := middleware.GetClaims(c)

		var body struct {
			Verdict        string  `json:"verdict"`
			Note           string  `json:"note"`
			SellerFraction float64 `json:"seller_fraction"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
		}

		order, err := ds.Resolve(
			c.Request().Context(),
			c.Param("orderId"),
			cl.Email,
			body.Verdict,
			body.Note,
			body.SellerFraction,
		)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	}))

	// Re-drive a reversal that failed on the external rail.
	d.POST("/:orderId/retry-refund", middleware.AdminOnly(func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		order, err := ds.RetryRefund(c.Request().Context(), c.Param("orderId"), cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	}))
}
