package execution

import (
	"context"
	"errors"
	"net/http"
	"time"

	"waypoint/bizerror"
	"waypoint/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	PathWorkflows        = "/v1/workflows"
	PathDispatchRecovery = "/v1/workflow-dispatch-recovery"

	RedispatchBatchSize = 500

	dispatchRecoveryLimiter = rate.NewLimiter(rate.Every(1*time.Minute), 1)

	RedispatchRoutineFunc = redispatchRoutine
)

type restAPI struct {
	services map[string]*Service
}

func RegisterExecutionRestAPI(r *gin.Engine, services []*Service, middleWares ...gin.HandlerFunc) {
	api := &restAPI{services: map[string]*Service{}}
	for _, s := range services {
		api.services[s.Workflow()] = s
	}

	g := r.Group(PathWorkflows, middleWares...)
	g.GET(":workflow/transitions", api.handleListTransitions)
	g.GET(":workflow/entities/:id/transitions", api.handleAvailableTransitions)
	g.POST(":workflow/entities/:id/transitions", api.handleExecuteTransition)
	g.GET(":workflow/entities/:id/events", api.handleListEvents)

	d := r.Group(PathDispatchRecovery, middleWares...)
	d.POST("", api.handleDispatchRecovery)
}

func (api *restAPI) service(c *gin.Context) *Service {
	s, found := api.services[c.Param("workflow")]
	if !found {
		panic(bizerror.ErrNotFound)
	}
	return s
}

func entityID(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}
	return id
}

func (api *restAPI) handleListTransitions(c *gin.Context) {
	c.JSON(http.StatusOK, api.service(c).ExecutableTransitions(session.FindSecurityContext(c)))
}

func (api *restAPI) handleAvailableTransitions(c *gin.Context) {
	s := api.service(c)
	available, err := s.AvailableTransitions(c.Request.Context(), entityID(c), session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, available)
}

func (api *restAPI) handleExecuteTransition(c *gin.Context) {
	s := api.service(c)
	id := entityID(c)
	in := Input{}
	if err := c.ShouldBindBodyWith(&in, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	in.EntityID = id

	changed, err := s.ExecuteTransition(c.Request.Context(), in, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, changed.Event)
}

func (api *restAPI) handleListEvents(c *gin.Context) {
	s := api.service(c)
	events, err := s.Reader().List(c.Request.Context(), entityID(c), session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, events)
}

func (api *restAPI) handleDispatchRecovery(c *gin.Context) {
	if !dispatchRecoveryLimiter.Allow() {
		panic(bizerror.ErrRateLimited)
	}
	services := make([]*Service, 0, len(api.services))
	for _, s := range api.services {
		services = append(services, s)
	}
	if err := RedispatchRoutineFunc(services, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, gin.H{"result": "started"})
}

func redispatchRoutine(services []*Service, sec *session.Context) error {
	go func() {
		for _, s := range services {
			count, err := s.Redispatch(context.Background(), RedispatchBatchSize)
			fields := logrus.Fields{"workflow": s.Workflow(), "count": count}
			if sec != nil {
				fields["user"] = sec.Identity.ID
			}
			if err != nil {
				logrus.WithFields(fields).WithError(err).Error("workflow event redispatch failed")
				continue
			}
			logrus.WithFields(fields).Info("workflow events redispatched")
		}
	}()
	return nil
}
