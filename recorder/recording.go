package recorder

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"braces.dev/errtrace"
	"github.com/goccy/go-yaml"

	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/cimxml"
	"github.com/tony23/pywbem/engine"
)

// Recording implements engine.Recorder, accumulating one Scenario per
// operation observed and serializing them to the replay file format on
// WriteTo. It is safe for concurrent use, though a Connection never
// calls its hooks concurrently with itself.
type Recording struct {
	mu        sync.Mutex
	scenarios []*Scenario
	cur       *Scenario
}

// NewRecording returns an empty Recording.
func NewRecording() *Recording {
	return &Recording{}
}

// StagedRequest implements engine.Recorder.
func (r *Recording) StagedRequest(op engine.Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc := &Scenario{PywbemRequest: PywbemRequest{Operation: Operation{Method: op.Method, Params: op.Params}}}
	if op.Namespace != "" {
		ns := op.Namespace
		sc.PywbemRequest.Namespace = &ns
	}
	r.cur = sc
}

// StagedHTTPRequest implements engine.Recorder.
func (r *Recording) StagedHTTPRequest(body []byte, headers map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return
	}
	r.cur.HTTPRequest = HTTPRequest{Data: string(body), Headers: flattenHeaders(headers)}
}

// StagedHTTPReply implements engine.Recorder.
func (r *Recording) StagedHTTPReply(body []byte, headers map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return
	}
	r.cur.HTTPResponse = HTTPResponse{Data: string(body), Headers: flattenHeaders(headers)}
}

// StagedReply implements engine.Recorder, closing out the in-progress
// scenario and appending it to the recording.
func (r *Recording) StagedReply(result any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return
	}
	sc := r.cur
	r.cur = nil

	if err != nil {
		var cerr *cimerr.CIMError
		if errors.As(err, &cerr) {
			code := cerr.Code
			sc.PywbemResponse.CIMStatus = &code
		}
		r.scenarios = append(r.scenarios, sc)
		return
	}

	if rv, ok := result.(*cimxml.ReturnValue); ok && rv != nil {
		populateResult(&sc.PywbemResponse, rv)
	}
	r.scenarios = append(r.scenarios, sc)
}

// populateResult fills in whichever of Result/Results best matches the
// return value's shape: a single instance or path when there is
// exactly one, a list when there are several, or a single non-NULL
// return value. Classes are not recorded.
func populateResult(resp *PywbemResponse, rv *cimxml.ReturnValue) {
	switch {
	case len(rv.Instances) == 1:
		resp.Result = &CIMObject{Instance: instanceFieldsOf(rv.Instances[0])}
	case len(rv.Instances) > 1:
		for _, inst := range rv.Instances {
			resp.Results = append(resp.Results, &CIMObject{Instance: instanceFieldsOf(inst)})
		}
	case len(rv.InstanceNames) == 1:
		resp.Result = &CIMObject{InstanceName: instanceNameFieldsOf(rv.InstanceNames[0])}
	case len(rv.InstanceNames) > 1:
		for _, path := range rv.InstanceNames {
			resp.Results = append(resp.Results, &CIMObject{InstanceName: instanceNameFieldsOf(path)})
		}
	case len(rv.Values) == 1 && rv.Values[0] != nil:
		resp.Result = &CIMObject{Property: &PropertyFields{Value: *newScalarValue(rv.Values[0])}}
	}
}

// Scenarios returns a snapshot of the recorded scenarios.
func (r *Recording) Scenarios() []*Scenario {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Scenario, len(r.scenarios))
	copy(out, r.scenarios)
	return out
}

// WriteTo serializes the recording to w as a YAML sequence of scenarios.
func (r *Recording) WriteTo(w io.Writer) (int64, error) {
	b, err := yaml.Marshal(r.Scenarios())
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	n, err := w.Write(b)
	return int64(n), errtrace.Wrap(err)
}

func flattenHeaders(h map[string][]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func headersFromMap(m map[string]string) http.Header {
	if len(m) == 0 {
		return nil
	}
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}
