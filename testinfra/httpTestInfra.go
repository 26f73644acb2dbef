package testinfra

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"

	"waypoint/authority"
	"waypoint/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	body, _ := ioutil.ReadAll(resp.Body)
	return resp.StatusCode, string(body), resp
}

// BuildSecCtx build security context
func BuildSecCtx(uid types.ID, perms ...string) *session.Context {
	return &session.Context{Token: "token", Identity: session.Identity{ID: uid, Name: "user" + uid.String()},
		Perms: authority.Permissions(perms)}
}

// InjectSecCtx returns a middleware which acts as the given user.
func InjectSecCtx(secCtx *session.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		session.SaveSecurityContext(c, secCtx)
		c.Next()
	}
}
