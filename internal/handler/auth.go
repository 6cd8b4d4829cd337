package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/staybook/internal/config"
	"github.com/iliyamo/staybook/internal/middleware"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/service"
	"github.com/iliyamo/staybook/internal/session"
	"github.com/iliyamo/staybook/internal/utils"
)

// AuthHandler bundles dependencies for account and session endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Svc      *service.Service
	Sessions session.Backend
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, svc *service.Service, sessions session.Backend, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Svc: svc, Sessions: sessions, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User   model.User `json:"user"`
	Access tokenPart  `json:"access"`
}

type meResp struct {
	User  *model.User `json:"user"`
	State string      `json:"state"`
}

// Register creates a guest account.  The client logs in separately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(c, h.Log, service.OpRegister, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Login opens a new server-side session and returns an access token that
// names it.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	sid := uuid.NewString()
	holder := session.New(h.Sessions.Storage(sid), h.Svc.Users())
	if err := holder.Restore(ctx); err != nil {
		return fail(c, h.Log, service.OpLogin, err)
	}
	u, err := h.Svc.Login(ctx, holder, req.Username, req.Password)
	if err != nil {
		return fail(c, h.Log, service.OpLogin, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, sid, u.IsAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		_ = holder.Logout(ctx)
		return fail(c, h.Log, service.OpLogin, err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:   u,
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me reports the user held by the current session.
func (h *AuthHandler) Me(c echo.Context) error {
	holder := middleware.SessionHolder(c)
	return c.JSON(http.StatusOK, meResp{User: holder.User(), State: holder.State().String()})
}

// Logout ends the session; every token issued for it stops working.
func (h *AuthHandler) Logout(c echo.Context) error {
	holder := middleware.SessionHolder(c)
	if err := holder.Logout(c.Request().Context()); err != nil {
		h.Log.Error("logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "Something went wrong. Please try again."})
	}
	return c.NoContent(http.StatusNoContent)
}
