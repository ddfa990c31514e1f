package main

import (
	"net/http"

	"github.com/shillmonger/Shopdotfun-sub001/internal/middleware"
	"github.com/shillmonger/Shopdotfun-sub001/internal/services"

	"github.com/labstack/echo/v4"
)

func registerNotificationRoutes(g *echo.Group, ns *services.NotificationService) {
	n := g.Group("/notifications")
	n.Use(middleware.JWTMiddleware())

	n.GET("", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		if cl == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		}
		list, err := ns.List(c.Request().Context(), cl.Email)
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, list)
	})

	n.POST("/:id/read", func(c echo.Context) error {
		cl := middleware.GetClaims(c)
		if err := ns.MarkRead(c.Request().Context(), c.Param("id"), cl.Email); err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
}
