package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"waypoint/bizerror"
	"waypoint/session"
	"waypoint/testinfra"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestSimpleAuthFilter(t *testing.T) {
	RegisterTestingT(t)

	router := gin.New()
	router.Use(bizerror.ErrorHandling())
	router.GET("/me", session.SimpleAuthFilter(), func(c *gin.Context) {
		c.JSON(http.StatusOK, session.FindSecurityContext(c).Identity)
	})

	t.Run("should reject request without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})

	t.Run("should reject unknown token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer unknown")
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusUnauthorized))
	})

	t.Run("should accept issued token from cookie or bearer header", func(t *testing.T) {
		secCtx := session.Issue(session.Identity{ID: 10, Name: "ann"}, "administrator")
		Expect(secCtx.HasRole("Administrator")).To(BeTrue())

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: secCtx.Token})
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"10","name":"ann","nickname":""}`))

		req = httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+secCtx.Token)
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
	})

	t.Run("nil context has no roles", func(t *testing.T) {
		var secCtx *session.Context
		Expect(secCtx.HasRole("administrator")).To(BeFalse())
		Expect(secCtx.HasAnyRole("administrator")).To(BeFalse())
	})
}
