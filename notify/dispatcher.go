package notify

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"waypoint/execution"

	"github.com/fundwit/go-commons/types"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const handlerIdentifier = "notify"

// Notice is everything a sender needs to tell recipients about a change.
type Notice struct {
	EventID    types.ID `json:"eventId"`
	Workflow   string   `json:"workflow"`
	EntityID   types.ID `json:"entityId"`
	Previous   string   `json:"previous"`
	Action     string   `json:"action"`
	To         string   `json:"to"`
	Notes      string   `json:"notes"`
	ActorName  string   `json:"actorName"`
	Recipients []string `json:"recipients"`
}

type Sender interface {
	Send(ctx context.Context, n Notice) error
}

// LogSender writes notices to the log. Rendering and delivery belong to the
// mail or chat integration that replaces it.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n Notice) error {
	logrus.WithFields(logrus.Fields{"workflow": n.Workflow, "entity": n.EntityID, "event": n.EventID,
		"to": n.To, "recipients": strings.Join(n.Recipients, ",")}).Infof("%s %s", n.ActorName, n.Action)
	return nil
}

// ExtraRecipientsFromEnv reads the comma separated WAYPOINT_NOTIFY_EXTRA list.
func ExtraRecipientsFromEnv() []string {
	var extra []string
	for _, r := range strings.Split(os.Getenv("WAYPOINT_NOTIFY_EXTRA"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			extra = append(extra, r)
		}
	}
	return extra
}

// Dispatcher turns changes into notices. Every change may arrive more than
// once; an event already notified within the dedupe window is skipped.
type Dispatcher struct {
	// Baseline holds the roles notified on every change, per workflow.
	Baseline  map[string][]string
	Extra     []string
	Directory Directory
	Sender    Sender

	seen *cache.Cache
}

func NewDispatcher(baseline map[string][]string, directory Directory, sender Sender) *Dispatcher {
	return &Dispatcher{Baseline: baseline, Extra: ExtraRecipientsFromEnv(), Directory: directory, Sender: sender,
		seen: cache.New(24*time.Hour, time.Hour)}
}

// Recipients are the members holding a baseline or transition notify role
// plus the configured extras, without the actor.
func (d *Dispatcher) Recipients(ctx context.Context, c *execution.Changed) ([]string, error) {
	roles := append([]string{}, d.Baseline[c.Workflow]...)
	if c.Transition != nil {
		roles = append(roles, c.Transition.Notify...)
	}
	members, err := d.Directory.Members(ctx, c.Workflow, c.EntityID, roles)
	if err != nil {
		return nil, err
	}

	set := map[string]bool{}
	for _, m := range members {
		if m.MemberID != c.Actor.ID {
			set[m.MemberName] = true
		}
	}
	for _, r := range d.Extra {
		set[r] = true
	}
	delete(set, "")
	recipients := make([]string, 0, len(set))
	for r := range set {
		recipients = append(recipients, r)
	}
	sort.Strings(recipients)
	return recipients, nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, c *execution.Changed) error {
	key := c.Event.ID.String()
	if err := d.seen.Add(key, true, cache.DefaultExpiration); err != nil {
		logrus.Debugf("workflow event %s already notified", key)
		return nil
	}

	recipients, err := d.Recipients(ctx, c)
	if err != nil {
		d.seen.Delete(key)
		return fmt.Errorf("resolve recipients of event %s: %w", key, err)
	}
	if len(recipients) == 0 {
		return nil
	}
	if err := d.Sender.Send(ctx, noticeOf(c, recipients)); err != nil {
		d.seen.Delete(key)
		return fmt.Errorf("send notice of event %s: %w", key, err)
	}
	return nil
}

// Handler adapts the dispatcher to in-process change handling.
func (d *Dispatcher) Handler() execution.Handler {
	return func(c *execution.Changed) *execution.HandleResult {
		if err := d.Dispatch(context.Background(), c); err != nil {
			return &execution.HandleResult{Success: false, Message: err.Error(), HandlerIdentifier: handlerIdentifier}
		}
		return &execution.HandleResult{Success: true, HandlerIdentifier: handlerIdentifier}
	}
}

func noticeOf(c *execution.Changed, recipients []string) Notice {
	action := "set status to " + c.To
	if c.Transition != nil {
		action = c.Transition.Label
	}
	return Notice{EventID: c.Event.ID, Workflow: c.Workflow, EntityID: c.EntityID, Previous: c.Previous,
		Action: action, To: c.To, Notes: c.Event.Notes, ActorName: c.Actor.Name, Recipients: recipients}
}
