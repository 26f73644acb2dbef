package indices

import (
	"net/http"

	"waypoint/bizerror"
	"waypoint/execution"
	"waypoint/session"

	"github.com/gin-gonic/gin"
)

var (
	PathEventSearch = "/v1/workflow-event-search"
)

func RegisterIndicesRestAPI(r *gin.Engine, services []*execution.Service, middleWares ...gin.HandlerFunc) {
	byWorkflow := map[string]*execution.Service{}
	for _, s := range services {
		byWorkflow[s.Workflow()] = s
	}

	g := r.Group(PathEventSearch, middleWares...)
	g.GET(":workflow", func(c *gin.Context) {
		s, found := byWorkflow[c.Param("workflow")]
		if !found {
			panic(bizerror.ErrNotFound)
		}
		q := EventQuery{}
		if err := c.ShouldBindQuery(&q); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		events, err := SearchEventsFunc(c.Request.Context(), s, q, session.FindSecurityContext(c))
		if err != nil {
			panic(err)
		}
		c.JSON(http.StatusOK, events)
	})
}
