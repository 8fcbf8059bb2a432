package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleClinical))
	g.GET("/audit-logs", h.History)
	g.GET("/audit-logs/users/:id", h.HistoryForUser)
}

// RequestInfoMiddleware stashes the HTTP metadata the recorder may attach
// to entries created further down the call chain.
func RequestInfoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			info := RequestInfo{
				IPAddress: c.RealIP(),
				UserAgent: c.Request().UserAgent(),
				SessionID: c.Request().Header.Get("X-Session-ID"),
			}
			ctx := ContextWithRequestInfo(c.Request().Context(), info)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func (h *Handler) History(c echo.Context) error {
	resourceType := c.QueryParam("resource_type")
	resourceID := c.QueryParam("resource_id")
	if resourceType == "" || resourceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "resource_type and resource_id are required")
	}
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.History(c.Request().Context(), resourceType, resourceID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}

func (h *Handler) HistoryForUser(c echo.Context) error {
	userID := c.Param("id")
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.HistoryForUser(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}
