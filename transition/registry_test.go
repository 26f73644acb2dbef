package transition_test

import (
	"encoding/json"
	"errors"
	"strings"

	"waypoint/bizerror"
	"waypoint/transition"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var (
		registry *transition.Registry
	)

	BeforeEach(func() {
		//              NotStarted   InProgress    InReview     Approved
		// NotStarted   -            V (Start)     X            X
		// InProgress   X            -             V (Submit)   X
		// InReview     X            V (Withdraw)  -            V (Approve)
		// *            V (Reset)
		registry = transition.MustDefine("report", map[string]transition.Spec{
			"Start":    {From: []string{"NotStarted"}, To: "InProgress"},
			"Submit":   {From: []string{"InProgress"}, To: "InReview", Label: "Submit for review"},
			"Withdraw": {From: []string{"InReview"}, To: "InProgress", Kind: transition.KindReject},
			"Approve":  {From: []string{"InReview"}, To: "Approved", Kind: transition.KindApprove, Notify: []string{"controller"}},
			"Reset":    {To: "NotStarted", ID: "reset"},
		})
	})

	Describe("Define", func() {
		It("should derive ids from names deterministically", func() {
			again := transition.MustDefine("report", map[string]transition.Spec{
				"Start": {From: []string{"NotStarted"}, To: "InProgress"},
			})
			start, found := registry.Get("Start")
			Expect(found).To(BeTrue())
			startAgain, _ := again.Get("Start")
			Expect(start.ID).To(Equal(startAgain.ID))
			Expect(start.ID).To(Equal(transition.HashID("Start")))
			Expect(len(start.ID)).To(Equal(transition.IDLength))
			Expect(start.Pinned).To(BeFalse())
			Expect(transition.HashID("Start")).ToNot(Equal(transition.HashID("start")))
		})

		It("should keep pinned ids", func() {
			reset, found := registry.Get("Reset")
			Expect(found).To(BeTrue())
			Expect(reset.ID).To(Equal("reset"))
			Expect(reset.Pinned).To(BeTrue())
			Expect(reset.FromAny()).To(BeTrue())
		})

		It("should normalize specs", func() {
			start, _ := registry.Get("Start")
			Expect(start.Label).To(Equal("Start"))
			Expect(start.Kind).To(Equal(transition.KindNeutral))

			r, err := transition.Define("w", map[string]transition.Spec{
				"Any":   {From: []string{}, To: "B"},
				"Twice": {From: []string{"A", "A", ""}, To: "B"},
			})
			Expect(err).To(BeNil())
			wildcard, _ := r.Get("Any")
			Expect(wildcard.From).To(BeNil())
			twice, _ := r.Get("Twice")
			Expect(twice.From).To(Equal([]string{"A"}))
		})

		It("should fail fast on invalid tables", func() {
			_, err := transition.Define("w", map[string]transition.Spec{"NoTarget": {From: []string{"A"}}})
			Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())

			_, err = transition.Define("w", map[string]transition.Spec{"": {To: "A"}})
			Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())

			_, err = transition.Define("w", map[string]transition.Spec{"Odd": {To: "A", Kind: "Maybe"}})
			Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())

			_, err = transition.Define("w", map[string]transition.Spec{
				"One": {To: "A", ID: "same"},
				"Two": {To: "B", ID: "same"},
			})
			Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("share id same"))

			Expect(func() {
				transition.MustDefine("w", map[string]transition.Spec{"NoTarget": {}})
			}).To(Panic())
		})
	})

	Describe("Extend", func() {
		It("should reject duplicate names", func() {
			err := registry.Extend(map[string]transition.Spec{"Start": {To: "Approved"}})
			Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(`duplicate transition "Start"`))
		})

		It("should reject ids already in use", func() {
			err := registry.Extend(map[string]transition.Spec{"Restart": {To: "NotStarted", ID: "reset"}})
			Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())
		})

		It("should keep the registry unchanged when the table is invalid", func() {
			err := registry.Extend(map[string]transition.Spec{
				"Publish": {From: []string{"Approved"}, To: "Published"},
				"Broken":  {From: []string{"Approved"}},
			})
			Expect(err).ToNot(BeNil())
			_, found := registry.Get("Publish")
			Expect(found).To(BeFalse())
		})

		It("should add transitions", func() {
			Expect(registry.Extend(map[string]transition.Spec{"Publish": {From: []string{"Approved"}, To: "Published"}})).To(BeNil())
			publish, found := registry.Get("Publish")
			Expect(found).To(BeTrue())
			byID, found := registry.ByID(publish.ID)
			Expect(found).To(BeTrue())
			Expect(byID).To(Equal(publish))
		})
	})

	Describe("queries", func() {
		It("should list transitions available from a state, wildcards included", func() {
			names := func(ts []transition.Transition) []string {
				r := []string{}
				for _, t := range ts {
					r = append(r, t.Name)
				}
				return r
			}
			Expect(names(registry.Available("NotStarted"))).To(Equal([]string{"Reset", "Start"}))
			Expect(names(registry.Available("InReview"))).To(Equal([]string{"Approve", "Reset", "Withdraw"}))
			Expect(names(registry.Available("Unknown"))).To(Equal([]string{"Reset"}))
		})

		It("should resolve id sets", func() {
			approve, _ := registry.Get("Approve")
			withdraw, _ := registry.Get("Withdraw")
			start, _ := registry.Get("Start")

			Expect(len(registry.IDs())).To(Equal(5))
			Expect(registry.IDsNamed("Approve", "Missing")).To(Equal([]string{approve.ID}))
			Expect(registry.IDsEndingIn("InProgress")).To(ConsistOf(start.ID, withdraw.ID))
			Expect(registry.IDsEndingIn("Nowhere")).To(BeEmpty())
			_, found := registry.ByID("missing")
			Expect(found).To(BeFalse())
		})

		It("should list states", func() {
			Expect(registry.States()).To(Equal([]string{"Approved", "InProgress", "InReview", "NotStarted"}))
		})
	})

	Describe("Transition", func() {
		It("should marshal wildcard source as empty list", func() {
			reset, _ := registry.Get("Reset")
			bytes, err := json.Marshal(reset)
			Expect(err).To(BeNil())
			Expect(string(bytes)).To(MatchJSON(`{"id":"reset","name":"Reset","from":[],"to":"NotStarted",
				"label":"Reset","kind":"Neutral","notify":[],"pinned":true,"anyFrom":true}`))
		})

		It("should keep the wildcard source through a round trip", func() {
			reset, _ := registry.Get("Reset")
			approve, _ := registry.Get("Approve")
			for _, t := range []transition.Transition{reset, approve} {
				bytes, err := json.Marshal(t)
				Expect(err).To(BeNil())
				decoded := transition.Transition{}
				Expect(json.Unmarshal(bytes, &decoded)).To(BeNil())
				Expect(decoded.FromAny()).To(Equal(t.FromAny()))
				Expect(decoded.ID).To(Equal(t.ID))
				Expect(decoded.CanRunFrom("InReview")).To(Equal(t.CanRunFrom("InReview")))
			}
		})
	})

	Describe("Next", func() {
		It("should distinguish steps and bypasses", func() {
			approve, _ := registry.Get("Approve")
			var next transition.Next = transition.Step{Transition: approve}
			Expect(next.To()).To(Equal("Approved"))
			Expect(next.TransitionID()).To(Equal(approve.ID))
			Expect(transition.IsBypass(next)).To(BeFalse())

			next = transition.Bypass{Status: "Published"}
			Expect(next.To()).To(Equal("Published"))
			Expect(next.TransitionID()).To(BeEmpty())
			Expect(transition.IsBypass(next)).To(BeTrue())
		})
	})
})

var _ = Describe("LoadYAML", func() {
	It("should load tables with scalar or list sources", func() {
		table, err := transition.LoadYAML(strings.NewReader(`
workflow: report
initial: NotStarted
notify: [project-manager]
transitions:
  Start:
    from: NotStarted
    to: InProgress
    kind: approve
  Withdraw:
    from: [InReview, Approved]
    to: InProgress
    kind: Reject
    notify: controller
  Reset:
    id: pinned-reset
    to: NotStarted
`))
		Expect(err).To(BeNil())
		Expect(table.Workflow).To(Equal("report"))
		Expect(table.Initial).To(Equal("NotStarted"))
		Expect(table.Notify).To(Equal([]string{"project-manager"}))
		Expect(table.Transitions["Start"].From).To(Equal([]string{"NotStarted"}))
		Expect(table.Transitions["Withdraw"].From).To(Equal([]string{"InReview", "Approved"}))
		Expect(table.Transitions["Withdraw"].Notify).To(Equal([]string{"controller"}))

		registry, err := table.Define()
		Expect(err).To(BeNil())
		start, _ := registry.Get("Start")
		Expect(start.Kind).To(Equal(transition.KindApprove))
		reset, _ := registry.Get("Reset")
		Expect(reset.ID).To(Equal("pinned-reset"))
		Expect(reset.FromAny()).To(BeTrue())
	})

	It("should reject unknown keys, duplicate names and missing headers", func() {
		_, err := transition.LoadYAML(strings.NewReader("workflow: w\ninitial: A\ntransitions:\n  Go: {to: B, color: red}\n"))
		Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())

		_, err = transition.LoadYAML(strings.NewReader("workflow: w\ninitial: A\ntransitions:\n  Go: {to: B}\n  Go: {to: C}\n"))
		Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())

		_, err = transition.LoadYAML(strings.NewReader("initial: A\n"))
		Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())

		_, err = transition.LoadYAML(strings.NewReader("workflow: w\n"))
		Expect(errors.Is(err, bizerror.ErrConfiguration)).To(BeTrue())
	})
})
