// Package cimerr defines the taxonomy of errors the client can raise:
// server-reported CIMError plus local/transport failure kinds. Every
// error implements the standard error interface and is distinguishable
// with errors.As.
package cimerr

import (
	"fmt"

	"github.com/tony23/pywbem/cim"
)

// mnemonics maps a DMTF CIM_ERR_* status code to its mnemonic name, per
// DSP0200 §9.
var mnemonics = map[int]string{
	1:  "CIM_ERR_FAILED",
	2:  "CIM_ERR_ACCESS_DENIED",
	3:  "CIM_ERR_INVALID_NAMESPACE",
	4:  "CIM_ERR_INVALID_PARAMETER",
	5:  "CIM_ERR_INVALID_CLASS",
	6:  "CIM_ERR_NOT_FOUND",
	7:  "CIM_ERR_NOT_SUPPORTED",
	8:  "CIM_ERR_CLASS_HAS_CHILDREN",
	9:  "CIM_ERR_CLASS_HAS_INSTANCES",
	10: "CIM_ERR_INVALID_SUPERCLASS",
	11: "CIM_ERR_ALREADY_EXISTS",
	12: "CIM_ERR_NO_SUCH_PROPERTY",
	13: "CIM_ERR_TYPE_MISMATCH",
	14: "CIM_ERR_QUERY_LANGUAGE_NOT_SUPPORTED",
	15: "CIM_ERR_INVALID_QUERY",
	16: "CIM_ERR_METHOD_NOT_AVAILABLE",
	17: "CIM_ERR_METHOD_NOT_FOUND",
	18: "CIM_ERR_UNEXPECTED_RESPONSE",
	19: "CIM_ERR_INVALID_RESPONSE_DESTINATION",
	20: "CIM_ERR_NAMESPACE_NOT_EMPTY",
	21: "CIM_ERR_INVALID_ENUMERATION_CONTEXT",
	22: "CIM_ERR_INVALID_OPERATION_TIMEOUT",
	23: "CIM_ERR_PULL_HAS_BEEN_ABANDONED",
	24: "CIM_ERR_PULL_CANNOT_BE_ABANDONED",
	25: "CIM_ERR_FILTERED_ENUMERATION_NOT_SUPPORTED",
	26: "CIM_ERR_CONTINUATION_ON_ERROR_NOT_SUPPORTED",
	27: "CIM_ERR_SERVER_LIMITS_EXCEEDED",
	28: "CIM_ERR_SERVER_IS_SHUTTING_DOWN",
}

// Mnemonic returns the DMTF mnemonic for a CIM_ERR_* code, or
// "CIM_ERR_UNKNOWN" if code isn't in the DSP0200 table.
func Mnemonic(code int) string {
	if m, ok := mnemonics[code]; ok {
		return m
	}
	return "CIM_ERR_UNKNOWN"
}

// CIMError is the error the server returned in an <ERROR> element of a
// CIM-XML response.
type CIMError struct {
	Code        int
	Description string
	Instances   []*cim.Instance
}

func (e *CIMError) Error() string {
	return fmt.Sprintf("%s (%d): %s", Mnemonic(e.Code), e.Code, e.Description)
}

// Mnemonic returns the DMTF mnemonic for e's code.
func (e *CIMError) Mnemonic() string { return Mnemonic(e.Code) }

// ConnectionError reports a transport-level connection failure: refused
// connection, DNS failure, TLS handshake failure, or an unexpected
// CIMOperation response header.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError reports an authentication failure: a 401 response with no
// further credentials to offer, or a digest challenge the client
// cannot satisfy.
type AuthError struct {
	StatusCode int
	Msg        string
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed (HTTP %d): %s", e.StatusCode, e.Msg) }

// TimeoutError reports that the configured operation timeout elapsed
// before a response was fully received. It is distinct from CIMError:
// it is a transport failure, not a server-reported status.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("operation %s timed out", e.Op) }

// HTTPError reports a non-200 HTTP response that wasn't otherwise
// classified as AuthError.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string { return fmt.Sprintf("unexpected HTTP status: %s", e.Status) }

// ParseError reports malformed or unexpected CIM-XML: schema
// violations, unknown elements, or invalid typed values. Line/Col are
// best-effort pointers into the response body.
type ParseError struct {
	Msg  string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("CIM-XML parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("CIM-XML parse error: %s", e.Msg)
}

// VersionError reports a CIM-XML document whose DTDVERSION the client
// does not support (this client requires DTDVERSION to start with "2.").
type VersionError struct {
	DTDVersion string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported DTDVERSION %q: this client requires a DTDVERSION starting with \"2.\"", e.DTDVersion)
}

// ModelError reports a local precondition violation caught before any
// bytes go on the wire: a missing namespace, conflicting arguments, an
// invalid type code, or a pull-enumeration operation used out of state.
type ModelError struct {
	Msg string
}

func (e *ModelError) Error() string { return "invalid operation: " + e.Msg }

// NewModelError constructs a ModelError with a formatted message.
func NewModelError(format string, args ...any) *ModelError {
	return &ModelError{Msg: fmt.Sprintf(format, args...)}
}
