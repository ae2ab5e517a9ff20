package recorder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"braces.dev/errtrace"
	"github.com/goccy/go-yaml"

	"github.com/tony23/pywbem/transport"
)

// Replayer implements engine.Sender, standing in for a transport: it
// steps through a fixed sequence of recorded [Scenario] values and
// synthesizes each one's HTTP reply instead of making a network call,
// exactly the "alternative recorder [that] verifies against a canned
// file and synthesizes the HTTP reply, bypassing the transport" role.
type Replayer struct {
	mu        sync.Mutex
	scenarios []*Scenario
	i         int
}

// NewReplayer returns a Replayer over an in-memory scenario sequence.
func NewReplayer(scenarios []*Scenario) *Replayer {
	return &Replayer{scenarios: scenarios}
}

// LoadReplayer reads a replay file (a YAML sequence of scenarios) from r.
func LoadReplayer(r io.Reader) (*Replayer, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	var scenarios []*Scenario
	if err := yaml.Unmarshal(b, &scenarios); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return NewReplayer(scenarios), nil
}

// Send implements engine.Sender (the same signature as
// (*transport.Transport).Send): it
// consumes the next staged scenario in order and returns its canned
// HTTP reply, failing if the scenario's recorded method doesn't match
// the call actually made — a replay file out of sync with the code
// exercising it should fail loudly rather than silently mismatch.
func (p *Replayer) Send(_ context.Context, cimMethod, _ string, _ bool, body []byte) (*transport.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.i >= len(p.scenarios) {
		return nil, errtrace.Wrap(fmt.Errorf("recorder: replay exhausted, no scenario staged for %s", cimMethod))
	}
	sc := p.scenarios[p.i]
	p.i++

	if want := sc.PywbemRequest.Operation.Method; want != "" && !strings.EqualFold(want, cimMethod) {
		return nil, errtrace.Wrap(fmt.Errorf("recorder: scenario %d is for %s, got %s", p.i-1, want, cimMethod))
	}

	reply := []byte(sc.HTTPResponse.Data)
	return &transport.Result{
		Body:         reply,
		RequestLen:   len(body),
		ReplyLen:     len(reply),
		ReplyHeaders: headersFromMap(sc.HTTPResponse.Headers),
	}, nil
}

// Remaining reports how many staged scenarios have not yet been consumed.
func (p *Replayer) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scenarios) - p.i
}
