package engine

import (
	"context"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/tony23/pywbem/cimerr"
)

type pullState string

const (
	pullIdle   pullState = "idle"
	pullOpen   pullState = "open"
	pullClosed pullState = "closed"
)

type pullTrigger string

const (
	triggerOpen     pullTrigger = "open"
	triggerPullMore pullTrigger = "pull-more"
	triggerPullEnd  pullTrigger = "pull-end"
	triggerClose    pullTrigger = "close"
)

// enumeration tracks one open pull-enumeration context (spec §4.5's
// idle/open/closed state machine), keyed by the opaque context string
// the server returned from an Open* call.
type enumeration struct {
	context string
	fsm     *stateless.StateMachine
}

func newEnumeration(context string) *enumeration {
	e := &enumeration{context: context}
	e.fsm = stateless.NewStateMachine(pullIdle)
	e.fsm.Configure(pullIdle).Permit(triggerOpen, pullOpen)
	e.fsm.Configure(pullOpen).
		Permit(triggerPullMore, pullOpen).
		Permit(triggerPullEnd, pullClosed).
		Permit(triggerClose, pullClosed)
	e.fsm.Configure(pullClosed)
	return e
}

// open records a connection's freshly returned enumeration context.
// The caller must supply the non-empty context that came back from an
// Open* call with EndOfSequence=false; an Open* that already reports
// EndOfSequence=true never registers an enumeration at all.
func (c *Connection) open(context string) {
	e := newEnumeration(context)
	_ = e.fsm.Fire(triggerOpen) //nolint:errcheck // Permit above guarantees this succeeds from idle
	c.enumerations[context] = e
}

// requirePullable reports whether context is currently open for
// Pull*/Close*, returning a ModelError per spec §4.5 ("Any operation
// other than Pull*/Close* while open MUST fail locally") when it is
// not — including contexts this connection never opened, and contexts
// already closed.
func (c *Connection) requirePullable(context string) error {
	e, ok := c.enumerations[context]
	if !ok {
		return errtrace.Wrap(cimerr.NewModelError("enumeration context %q is not open on this connection", context))
	}
	if e.fsm.MustState().(pullState) != pullOpen { //nolint:forcetypeassert
		return errtrace.Wrap(cimerr.NewModelError("enumeration context %q is not open (state %v)", context, e.fsm.MustState()))
	}
	return nil
}

// advance transitions context after a Pull* reply: it stays open
// unless endOfSequence is set, in which case it moves to closed and is
// dropped from the live table (spec requires no further Pull*/Close*
// succeed against it).
func (c *Connection) advance(ctx context.Context, context string, endOfSequence bool) {
	e, ok := c.enumerations[context]
	if !ok {
		return
	}
	if endOfSequence {
		_ = e.fsm.FireCtx(ctx, triggerPullEnd) //nolint:errcheck
		delete(c.enumerations, context)
		return
	}
	_ = e.fsm.FireCtx(ctx, triggerPullMore) //nolint:errcheck
}

// closeEnumeration transitions context to closed on an explicit
// CloseEnumeration call and drops it from the live table.
func (c *Connection) closeEnumeration(ctx context.Context, context string) error {
	if err := c.requirePullable(context); err != nil {
		return errtrace.Wrap(err)
	}
	e := c.enumerations[context]
	if err := e.fsm.FireCtx(ctx, triggerClose); err != nil {
		return errtrace.Wrap(err)
	}
	delete(c.enumerations, context)
	return nil
}
