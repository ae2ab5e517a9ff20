// Package engine is the Operation Engine: typed methods for each CIM
// intrinsic operation plus a generic InvokeMethod for extrinsics,
// namespace resolution, per-connection statistics, the pull-enumeration
// state machine, and recorder hooks. See spec §4.5.
package engine

import (
	"bytes"
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/cimxml"
	"github.com/tony23/pywbem/log"
	"github.com/tony23/pywbem/transport"
)

// idempotentMethods names the intrinsic operations safe to retry once
// on a connection reset, per spec §4.4 ("Get*, Enumerate*, Pull*,
// Close*"). Create/Modify/Delete/Invoke are never retried.
var idempotentMethods = map[string]bool{
	"GetInstance":             true,
	"GetClass":                true,
	"EnumerateInstances":      true,
	"EnumerateInstanceNames":  true,
	"EnumerateClasses":        true,
	"Associators":             true,
	"AssociatorNames":         true,
	"References":              true,
	"ReferenceNames":          true,
	"ExecQuery":               true,
	"OpenEnumerateInstances":  true,
	"OpenAssociatorInstances": true,
	"OpenReferenceInstances":  true,
	"PullInstancesWithPath":   true,
	"PullInstances":           true,
	"CloseEnumeration":        true,
}

// Config holds the fixed, caller-supplied parameters of a connection:
// everything this module needs is an explicit constructor argument
// (spec §6: "none required by the core" beyond these), never read
// from the environment.
type Config struct {
	URL              string
	User             string
	Password         string
	DefaultNamespace string
	Timeout          time.Duration
	StatsEnabled     bool

	// Sender overrides the transport entirely — tests and the
	// recorder's replay mode set this to something other than a real
	// *transport.Transport.
	Sender Sender

	Recorder Recorder
}

// Connection is one stateful, single-flight WBEM client connection:
// credentials, default namespace, the Message-ID counter, statistics,
// and active pull-enumeration contexts all live here. A Connection is
// not safe for concurrent operation calls (spec §5); callers wanting
// parallelism open one Connection per goroutine.
type Connection struct {
	cfg    Config
	sender Sender

	msgID atomic.Uint64

	stats map[string]*MethodStats

	enumerations map[string]*enumeration
}

// New returns a Connection for cfg. When cfg.Sender is nil, a
// transport.Transport is built from cfg.URL/User/Password/Timeout.
func New(cfg Config) *Connection {
	sender := cfg.Sender
	if sender == nil {
		sender = transport.New(transport.Config{
			URL:      cfg.URL,
			User:     cfg.User,
			Password: cfg.Password,
			Timeout:  cfg.Timeout,
		})
	}
	return &Connection{
		cfg:          cfg,
		sender:       sender,
		stats:        make(map[string]*MethodStats),
		enumerations: make(map[string]*enumeration),
	}
}

func (c *Connection) nextMessageID() string {
	return strconv.FormatUint(c.msgID.Add(1), 10)
}

// resolveNamespace implements spec §4.5's namespace resolution:
// opNamespace if supplied, else pathNamespace, else the connection's
// default, normalized; empty after normalization is a ModelError.
func (c *Connection) resolveNamespace(opNamespace, pathNamespace string) (string, error) {
	ns := opNamespace
	if ns == "" {
		ns = pathNamespace
	}
	if ns == "" {
		ns = c.cfg.DefaultNamespace
	}
	ns = cim.NormalizeNamespace(ns)
	if ns == "" {
		return "", errtrace.Wrap(cimerr.NewModelError("no namespace supplied on the operation, the object path, or the connection default"))
	}
	return ns, nil
}

// perform is the shared call path every typed operation funnels
// through: encode, log/record, send, decode, map errors, record stats.
func (c *Connection) perform(ctx context.Context, req *cimxml.Request, cimObject string) (*cimxml.ReturnValue, error) {
	req.MessageID = c.nextMessageID()

	if c.cfg.Recorder != nil {
		c.cfg.Recorder.StagedRequest(Operation{
			Method:    req.Method,
			Namespace: req.Namespace,
			Intrinsic: req.Kind == cimxml.Intrinsic,
			Params:    renderParams(req.Params),
		})
	}

	var buf bytes.Buffer
	if _, err := cimxml.EncodeRequest(&buf, req); err != nil {
		return nil, errtrace.Wrap(err)
	}
	reqBody := buf.Bytes()

	if c.cfg.Recorder != nil {
		c.cfg.Recorder.StagedHTTPRequest(reqBody, nil)
	}

	retry := idempotentMethods[req.Method]
	start := time.Now()
	res, err := c.sender.Send(ctx, req.Method, cimObject, retry, reqBody)
	clientTime := time.Since(start)
	if err != nil {
		c.recordStats(req.Method, 0, clientTime, len(reqBody), 0, true)
		if c.cfg.Recorder != nil {
			c.cfg.Recorder.StagedReply(nil, err)
		}
		return nil, errtrace.Wrap(err)
	}

	if c.cfg.Recorder != nil {
		var hdrs map[string][]string
		if res.ReplyHeaders != nil {
			hdrs = map[string][]string(res.ReplyHeaders)
		}
		c.cfg.Recorder.StagedHTTPReply(res.Body, hdrs)
	}

	log.FromContext(ctx).Debug("decoding CIM-XML reply", "cim_method", req.Method, "reply_len", res.ReplyLen)

	resp, err := cimxml.DecodeResponse(res.Body)
	if err != nil {
		c.recordStats(req.Method, 0, clientTime, res.RequestLen, res.ReplyLen, true)
		if c.cfg.Recorder != nil {
			c.cfg.Recorder.StagedReply(nil, err)
		}
		return nil, errtrace.Wrap(err)
	}

	serverTime := time.Duration(res.ServerTimeNano)
	if resp.Err != nil {
		c.recordStats(req.Method, serverTime, clientTime, res.RequestLen, res.ReplyLen, true)
		if c.cfg.Recorder != nil {
			c.cfg.Recorder.StagedReply(nil, resp.Err)
		}
		return nil, errtrace.Wrap(resp.Err)
	}

	c.recordStats(req.Method, serverTime, clientTime, res.RequestLen, res.ReplyLen, false)
	if c.cfg.Recorder != nil {
		c.cfg.Recorder.StagedReply(resp.Return, nil)
	}
	return resp.Return, nil
}

func renderParams(params []cimxml.Param) map[string]string {
	out := make(map[string]string, len(params))
	for _, p := range params {
		if v, ok := p.Value.(cim.Value); ok && v != nil {
			out[p.Name] = v.Render()
		}
	}
	return out
}
