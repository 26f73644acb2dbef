package sessions

import (
	"context"
	"net/http"
	"time"

	"waypoint/account"
	"waypoint/bizerror"
	"waypoint/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/patrickmn/go-cache"
)

var (
	PathSessions = "/v1/sessions"
	PathSession  = "/v1/session"
)

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthenticateFunc checks a login; it returns bizerror.ErrUnauthenticated on mismatch.
type AuthenticateFunc func(ctx context.Context, name, password string) (*account.User, error)

func RegisterSessionsRestAPI(r *gin.Engine, authenticate AuthenticateFunc) {
	g := r.Group(PathSessions)
	g.POST("", loginHandler(authenticate))
	g.DELETE("", logoutHandler)

	s := r.Group(PathSession, session.SimpleAuthFilter())
	s.GET("", detailHandler)
}

func loginHandler(authenticate AuthenticateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		login := LoginRequest{}
		if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		user, err := authenticate(c.Request.Context(), login.Name, login.Password)
		if err != nil {
			panic(err)
		}
		secCtx := session.Issue(user.Identity(), user.Perms()...)
		c.SetCookie(session.KeySecToken, secCtx.Token, int(session.TokenExpiration/time.Second), "/", "", false, false)
		c.JSON(http.StatusOK, secCtx)
	}
}

func logoutHandler(c *gin.Context) {
	token, _ := c.Cookie(session.KeySecToken)
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, false)
	c.AbortWithStatus(http.StatusNoContent)
}

// detailHandler returns the current session and extends it for another full
// expiration period.
func detailHandler(c *gin.Context) {
	sec := session.FindSecurityContext(c)
	refreshed := *sec
	refreshed.SigningTime = time.Now()
	session.TokenCache.Set(sec.Token, &refreshed, cache.DefaultExpiration)
	c.JSON(http.StatusOK, &refreshed)
}
