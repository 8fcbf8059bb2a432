package discharge

import (
	"context"
	"net/http"

	"github.com/google/uuid"
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
	g := api.Group("/discharge-requests", auth.RequireRole(auth.RoleAdmin, auth.RoleClinical))
	g.POST("", h.Request)
	g.GET("", h.List)
	g.GET("/:id", h.Get)

	admin := g.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/:id/approve", h.Approve)
	admin.POST("/:id/deny", h.Deny)

	n := api.Group("/notifications", auth.RequireRole(auth.RoleAdmin, auth.RoleClinical, auth.RoleFrontDesk))
	n.GET("", h.Notifications)
	n.POST("/:id/read", h.MarkRead)
}

type requestBody struct {
	Patient string `json:"patient"`
	Reason  string `json:"reason"`
}

func (h *Handler) Request(c echo.Context) error {
	var body requestBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	patientID, err := uuid.Parse(body.Patient)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	req, err := h.svc.RequestDischarge(c.Request().Context(), patientID, body.Reason)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid discharge request id")
	}
	req, err := h.svc.GetRequest(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, req)
}

type reviewBody struct {
	Note string `json:"note"`
}

func (h *Handler) Approve(c echo.Context) error {
	return h.review(c, h.svc.Approve)
}

func (h *Handler) Deny(c echo.Context) error {
	return h.review(c, h.svc.Deny)
}

func (h *Handler) review(c echo.Context, fn func(context.Context, uuid.UUID, string) (*Request, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid discharge request id")
	}
	var body reviewBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req, err := fn(c.Request().Context(), id, body.Note)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	list, total, err := h.svc.ListRequests(c.Request().Context(), c.QueryParam("status"), pg)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) Notifications(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	recipientID, err := uuid.Parse(recipient)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request has no resolvable user id")
	}
	pg := pagination.FromContext(c)
	unread := c.QueryParam("unread") == "true"
	list, total, err := h.svc.Notifications(c.Request().Context(), recipientID, unread, pg)
	if err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	if err := h.svc.MarkNotificationRead(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(apperror.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusOK)
}
