package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

//contextに入っているis_superuserを確認します。

func SuperuserGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Get(CtxIsSuperuserKey)
			isSuperuser, ok := raw.(bool)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//一般ユーザーは拒否、superuserだけ許可
			if !isSuperuser {
				return c.JSON(http.StatusForbidden, errorJSON("superuser only"))
			}

			return next(c)
		}
	}
}
