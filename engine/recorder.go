package engine

// Operation is the value a Recorder observes before a request is
// encoded: enough to reconstruct what was asked for, without handing
// out a mutable reference to any live request structure (spec §5:
// "they MUST NOT be given mutable references to request structures —
// they observe values").
type Operation struct {
	Method    string
	Namespace string
	Intrinsic bool
	Params    map[string]string // rendered parameter values, name -> Render()
}

// Recorder observes the four stages of one operation's lifecycle, per
// spec §4.5. When a non-nil Recorder is configured, Connection calls
// StagedRequest first and StagedHTTPRequest once the request is
// encoded (an encode failure ends the operation with no further
// calls); StagedHTTPReply is called only when the Sender returns a
// reply; StagedReply is called last, with the result or the error.
type Recorder interface {
	StagedRequest(op Operation)
	StagedHTTPRequest(body []byte, headers map[string][]string)
	StagedHTTPReply(body []byte, headers map[string][]string)
	StagedReply(result any, err error)
}
