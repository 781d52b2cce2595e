package guard

import (
	"strings"

	"github.com/mealdesk/mealdesk-web/internal/route"
)

// State is the state of the guard for one navigation.
type State int

// Guard states.
const (
	StateUnknown State = iota
	StateResolving
	StateAuthenticated
	StateUnauthenticated
	StateRendered
	StateRedirectIssued
	StateBlocked
)

var stateNames = [...]string{
	StateUnknown:         "unknown",
	StateResolving:       "resolving",
	StateAuthenticated:   "authenticated",
	StateUnauthenticated: "unauthenticated",
	StateRendered:        "rendered",
	StateRedirectIssued:  "redirect_issued",
	StateBlocked:         "blocked",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}

	return stateNames[s]
}

// Kind is the kind of a navigation decision.
type Kind int

// Decision kinds.
const (
	KindRender Kind = iota
	KindLoading
	KindRedirect
	KindNotFound
)

var kindNames = [...]string{
	KindRender:   "render",
	KindLoading:  "loading",
	KindRedirect: "redirect",
	KindNotFound: "not_found",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}

	return kindNames[k]
}

// Phase is the progress of the identity resolution of a browser session.
type Phase int

// Resolution phases.
const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

// Input is everything a decision depends on.
type Input struct {
	Class       route.Class
	HasIdentity bool
	Resolution  Phase
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Kind Kind
	// State is the terminal or intermediate guard state.
	State State
	// Target is the redirect location of KindRedirect.
	Target string
	// Err is the cause of a not-found decision or a suppressed failure.
	Err error
}

// Machine is the navigation state machine.
type Machine struct {
	defaultRedirect string
}

// NewMachine creates a Machine. defaultRedirect is the return destination used
// when the requested path is not a protected route.
func NewMachine(defaultRedirect string) *Machine {
	if defaultRedirect == "" {
		defaultRedirect = route.Dashboard
	}

	return &Machine{defaultRedirect: defaultRedirect}
}

// Evaluate returns the decision for in.
func (m *Machine) Evaluate(in Input) Decision {
	if !in.Class.IsRecognized() {
		return Decision{Kind: KindNotFound, State: StateBlocked, Err: ErrRouteUnrecognized}
	}

	if in.HasIdentity {
		d := Decision{Kind: KindRender, State: StateRendered}
		if in.Resolution == PhaseFailed {
			d.Err = ErrStaleFailure
		}

		return d
	}

	if in.Class.IsExempt {
		return Decision{Kind: KindRender, State: StateRendered}
	}

	switch in.Resolution {
	case PhaseSucceeded:
		return Decision{Kind: KindRender, State: StateRendered}
	case PhaseFailed:
		if in.Class.IsPublic {
			return Decision{Kind: KindRender, State: StateRendered}
		}

		return Decision{
			Kind:   KindRedirect,
			State:  StateRedirectIssued,
			Target: m.LoginRedirect(in.Class),
		}
	default:
		return Decision{Kind: KindLoading, State: StateResolving}
	}
}

// LoginRedirect returns the login location that brings the browser back to
// the classified path after signing in.
func (m *Machine) LoginRedirect(class route.Class) string {
	target := m.defaultRedirect
	if class.IsProtected {
		target = class.Path
	}

	return route.Login + "?redirect=" + PercentEncode(target)
}

const upperHex = "0123456789ABCDEF"

// PercentEncode escapes s the way a URI component is escaped in a browser:
// everything except ASCII letters, digits and -_.!~*'() is percent encoded
// byte by byte.
func PercentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)

			continue
		}

		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}

	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	return strings.IndexByte("-_.!~*'()", c) >= 0
}
