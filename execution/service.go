package execution

import (
	"context"
	"errors"
	"fmt"

	"waypoint/bizerror"
	"waypoint/event"
	"waypoint/idgen"
	"waypoint/policy"
	"waypoint/session"
	"waypoint/transition"

	"github.com/fundwit/go-commons/types"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

const (
	MessageBypassDenied = "specify a transition id instead"
	MessageUnavailable  = "transition not available"
)

// Service executes the transitions of one workflow. The current state is
// read from the repository on every call and never cached.
type Service struct {
	Registry   *transition.Registry
	Initial    string
	Authorizer *policy.Authorizer
	Repository Repository
	Events     event.Store
	Handlers   []Handler

	idWorker *sonyflake.Sonyflake
	now      func() types.Timestamp
}

func NewService(registry *transition.Registry, initial string, authorizer *policy.Authorizer,
	repository Repository, events event.Store) *Service {
	return &Service{Registry: registry, Initial: initial, Authorizer: authorizer, Repository: repository, Events: events,
		idWorker: idgen.NewWorker(), now: types.CurrentTimestamp}
}

func (s *Service) Workflow() string {
	return s.Registry.Workflow
}

// Subscribe adds handlers invoked after every committed change.
func (s *Service) Subscribe(handlers ...Handler) {
	s.Handlers = append(s.Handlers, handlers...)
}

// Reader serves the events of this workflow filtered for callers.
func (s *Service) Reader() *event.Reader {
	return event.NewReader(s.Events, s.Authorizer)
}

// state returns the stored status and the effective one, which falls back to
// the initial state.
func (s *Service) state(ctx context.Context, entityID types.ID) (string, string, error) {
	stored, err := s.Repository.ReadCurrentState(ctx, entityID)
	if err != nil {
		return "", "", err
	}
	if stored == "" {
		return stored, s.Initial, nil
	}
	return stored, stored, nil
}

// AvailableTransitions lists what sec may execute on the entity right now.
func (s *Service) AvailableTransitions(ctx context.Context, entityID types.ID, sec *session.Context) ([]transition.Transition, error) {
	_, current, err := s.state(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return s.eligible(current, sec), nil
}

// ExecutableTransitions lists the transitions of the table sec may execute
// from some state. Transitions sec cannot run stay hidden.
func (s *Service) ExecutableTransitions(sec *session.Context) []transition.Transition {
	executable := []transition.Transition{}
	if sec == nil {
		return executable
	}
	for _, t := range s.Registry.All() {
		if s.Authorizer.CanExecute(sec, t) {
			executable = append(executable, t)
		}
	}
	return executable
}

func (s *Service) eligible(current string, sec *session.Context) []transition.Transition {
	eligible := []transition.Transition{}
	for _, t := range s.Registry.Available(current) {
		if s.Authorizer.CanExecute(sec, t) {
			eligible = append(eligible, t)
		}
	}
	return eligible
}

func (s *Service) resolve(current string, in Input, sec *session.Context) (transition.Next, error) {
	if in.Status != "" {
		if !s.Authorizer.CanBypass(sec) {
			return nil, bizerror.Denied(MessageBypassDenied)
		}
		return transition.Bypass{Status: in.Status}, nil
	}
	for _, t := range s.eligible(current, sec) {
		if t.ID == in.TransitionID {
			return transition.Step{Transition: t}, nil
		}
	}
	// unknown, unreachable and forbidden transitions look the same to the caller
	return nil, bizerror.Denied(MessageUnavailable)
}

// ExecuteTransition moves the entity through one transition or, for callers
// allowed to bypass, straight to a status. The event is durable before any
// handler sees the change.
func (s *Service) ExecuteTransition(ctx context.Context, in Input, sec *session.Context) (*Changed, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "workflow.execute")
	defer span.Finish()
	span.SetTag("workflow", s.Workflow())
	span.SetTag("entity", in.EntityID.String())

	timer := prometheus.NewTimer(executionDuration.WithLabelValues(s.Workflow()))
	defer timer.ObserveDuration()

	changed, err := s.execute(ctx, in, sec)
	outcome := outcomeOf(err)
	transitionsTotal.WithLabelValues(s.Workflow(), outcome).Inc()
	if err != nil {
		span.SetTag("outcome", outcome)
		fields := logrus.Fields{"workflow": s.Workflow(), "entity": in.EntityID, "transition": in.TransitionID, "status": in.Status}
		if sec != nil {
			fields["user"] = sec.Identity.ID
		}
		switch outcome {
		case outcomeFailed:
			logrus.WithFields(fields).WithError(err).Error("transition execution failed")
		default:
			logrus.WithFields(fields).Info("transition rejected: ", err)
		}
	}
	return changed, err
}

func (s *Service) execute(ctx context.Context, in Input, sec *session.Context) (*Changed, error) {
	if sec == nil {
		return nil, bizerror.ErrUnauthenticated
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	stored, current, err := s.state(ctx, in.EntityID)
	if err != nil {
		return nil, err
	}
	next, err := s.resolve(current, in, sec)
	if err != nil {
		return nil, err
	}
	if next.To() == "" {
		return nil, fmt.Errorf("%w: no destination resolved for entity %s", bizerror.ErrInvariant, in.EntityID)
	}

	e := &event.WorkflowEvent{
		ID:           idgen.NextID(s.idWorker),
		Workflow:     s.Workflow(),
		EntityID:     in.EntityID,
		At:           s.now(),
		WhoID:        sec.Identity.ID,
		WhoName:      sec.Identity.Name,
		TransitionID: next.TransitionID(),
		Previous:     current,
		To:           next.To(),
		Notes:        in.Notes,
	}
	if err := s.Repository.Commit(ctx, e, stored); err != nil {
		return nil, err
	}

	changed := &Changed{Workflow: s.Workflow(), EntityID: in.EntityID, Previous: current, To: next.To(), Event: *e, Actor: sec.Identity}
	if step, ok := next.(transition.Step); ok {
		t := step.Transition
		changed.Transition = &t
	}
	s.dispatch(context.WithoutCancel(ctx), changed)
	return changed, nil
}

// ExecuteWithRetry retries conflicting executions against the fresh state, at
// most attempts times in total.
func (s *Service) ExecuteWithRetry(ctx context.Context, in Input, sec *session.Context, attempts int) (*Changed, error) {
	var err error
	for i := 0; i < attempts || i == 0; i++ {
		var changed *Changed
		changed, err = s.ExecuteTransition(ctx, in, sec)
		if !bizerror.IsRetryable(err) {
			return changed, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func (s *Service) dispatch(ctx context.Context, changed *Changed) {
	if InvokeHandlersFunc == nil {
		return
	}
	results := InvokeHandlersFunc(s.Handlers, changed)
	if !allSucceeded(results) || s.Events == nil {
		return
	}
	if err := s.Events.MarkDispatched(ctx, changed.Event.ID); err != nil {
		logrus.WithFields(logrus.Fields{"workflow": changed.Workflow, "event": changed.Event.ID}).
			WithError(err).Warn("failed to mark workflow event dispatched")
	}
}

func outcomeOf(err error) string {
	var badParam *bizerror.ErrBadParam
	switch {
	case err == nil:
		return outcomeExecuted
	case errors.Is(err, bizerror.ErrUnauthorized), errors.Is(err, bizerror.ErrUnauthenticated):
		return outcomeDenied
	case errors.As(err, &badParam), errors.Is(err, bizerror.ErrNotFound):
		return outcomeInvalid
	case bizerror.IsRetryable(err):
		return outcomeConflict
	}
	return outcomeFailed
}
