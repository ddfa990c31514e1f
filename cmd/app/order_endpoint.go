package main

import (
	"net/http"

	"github.com/shillmonger/Shopdotfun-sub001/internal/middleware"
	"github.com/shillmonger/Shopdotfun-sub001/internal/services"

	"github.com/labstack/echo/v4"
)

func registerOrderRoutes(g *echo.Group, osvc *services.OrderService, ds *services.DisputeService) {
	o := g.Group("/orders")
	o.Use(middleware.JWTMiddleware())

	o.GET("", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		if cl == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}

		ctx := c.Request().Context()
		if cl.Role == "seller" {
			orders, err := osvc.ListBySeller(ctx, cl.Email)
			if err != nil {
				return httpError(c, err)
			}
			return c.JSON(http.StatusOK, orders)
		}
		orders, err := osvc.ListByBuyer(ctx, cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, orders)
	})

	o.GET("/:orderId", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		order, err := osvc.GetOrder(c.Request().Context(), c.Param("orderId"))
		if err != nil {
			return httpError(c, err)
		}
		if cl.Role != "admin" && order.BuyerInfo.Email != cl.Email && order.SellerInfo.Email != cl.Email {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusOK, order)
	})

	// Seller ships.
	o.POST("/:orderId/ship", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		order, err := osvc.MarkShipped(c.Request().Context(), c.Param("orderId"), cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	})

	// Buyer confirms delivery.
	o.POST("/:orderId/confirm", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		order, err := osvc.ConfirmReceived(c.Request().Context(), c.Param("orderId"), cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	})

	// Buyer disputes.
	o.POST("/:orderId/dispute", func(c echo.Context) error {
		cl := middleware.GetClaims(c)

		var body struct {
			Reason   string   `json:"reason"`
			Evidence []string `json:"evidence"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
		}

		order, err := ds.FileDispute(c.Request().Context(), c.Param("orderId"), cl.Email, body.Reason, body.Evidence)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, order)
	})

	// Scheduled auto-confirmation sweep. Exposed as an admin route so a cron
	// job can drive it; running it twice is a no-op.
	o.POST("/sweep", middleware.AdminOnly(func(c echo.Context) error {
		n, err := osvc.AutoConfirmSweep(c.Request().Context())
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"auto_confirmed": n})
	}))
}
