package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strconv"  // user ids are stored in the context as decimal strings
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/staybook/internal/model"   // model.User is what handlers receive
    "github.com/iliyamo/staybook/internal/session" // session.Holder tracks the logged-in user
    "github.com/iliyamo/staybook/internal/utils"   // utils parses access tokens
)

// Context keys written by SessionAuth.
const (
    ctxSession = "session" // *session.Holder for the request's session
    ctxUser    = "user"    // *model.User restored from the session
    ctxUserID  = "user_id" // decimal user id, read by rate limiting
)

// SessionAuth returns an Echo middleware that validates a Bearer access
// token and restores the server-side session named by its "sid" claim.
// The token alone is not enough: the session must still exist in the
// backend and hold the same user as the token's subject, so logging out
// revokes every token issued for that session.  Handlers read the result
// with CurrentUser and SessionHolder.
func SessionAuth(secret string, backend session.Backend, users session.UserLister) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Please log in to continue"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Signature, expiry and required claims are checked here.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Your session has expired. Please log in again."})
            }
            uid, _ := claims.UserID() // ParseAccessToken already rejected non-numeric subjects

            // Rehydrate the session.  A storage failure is not the
            // client's fault, so it surfaces as 503 rather than 401.
            holder := session.New(backend.Storage(claims.SessionID), users)
            if err := holder.Restore(c.Request().Context()); err != nil {
                c.Logger().Errorf("restore session %s: %v", claims.SessionID, err)
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Something went wrong. Please try again."})
            }
            u := holder.User()
            if u == nil || u.ID != uid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Your session has expired. Please log in again."})
            }

            c.Set(ctxSession, holder)
            c.Set(ctxUser, u)
            c.Set(ctxUserID, strconv.FormatUint(u.ID, 10))
            return next(c)
        }
    }
}

// RequireAdmin aborts with 403 unless SessionAuth restored an admin.  It
// must be registered after SessionAuth.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if u := CurrentUser(c); u == nil || !u.IsAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Only administrators can do that"})
            }
            return next(c)
        }
    }
}

// CurrentUser returns the user restored by SessionAuth, or nil.
func CurrentUser(c echo.Context) *model.User {
    u, _ := c.Get(ctxUser).(*model.User)
    return u
}

// SessionHolder returns the session restored by SessionAuth, or nil.
func SessionHolder(c echo.Context) *session.Holder {
    h, _ := c.Get(ctxSession).(*session.Holder)
    return h
}

// currentUserID is used for rate limit and cache keys.
func currentUserID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
        return s
    }
    return "anon"
}
