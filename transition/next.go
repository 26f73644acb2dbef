package transition

// Next is the resolved outcome of an execution request: either a Step through
// a defined transition or a Bypass straight to a status.
type Next interface {
	To() string
	TransitionID() string
	isNext()
}

type Step struct {
	Transition Transition
}

func (s Step) To() string           { return s.Transition.To }
func (s Step) TransitionID() string { return s.Transition.ID }
func (Step) isNext()                {}

type Bypass struct {
	Status string
}

func (b Bypass) To() string         { return b.Status }
func (Bypass) TransitionID() string { return "" }
func (Bypass) isNext()              {}

func IsBypass(n Next) bool {
	_, ok := n.(Bypass)
	return ok
}
