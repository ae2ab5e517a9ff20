package engine_test

import (
	"context"
	"testing"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/engine"
	"github.com/tony23/pywbem/transport"
)

const openEnumOneMoreBatch = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="OpenEnumerateInstances"><IRETURNVALUE>
<VALUE.NAMEDINSTANCE>
<INSTANCENAME CLASSNAME="PyWBEM_Person"><KEYBINDING NAME="Name"><KEYVALUE VALUETYPE="string">Fritz</KEYVALUE></KEYBINDING></INSTANCENAME>
<INSTANCE CLASSNAME="PyWBEM_Person"><PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY></INSTANCE>
</VALUE.NAMEDINSTANCE>
</IRETURNVALUE></IMETHODRESPONSE></SIMPLERSP>
</MESSAGE></CIM>`

func enumContextReply(context string, endOfSequence bool) string {
	eos := "FALSE"
	if endOfSequence {
		eos = "TRUE"
	}
	return `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="OpenEnumerateInstances">
<IRETURNVALUE/>
<PARAMVALUE NAME="EnumerationContext" PARAMTYPE="string"><VALUE>` + context + `</VALUE></PARAMVALUE>
<PARAMVALUE NAME="EndOfSequence" PARAMTYPE="boolean"><VALUE>` + eos + `</VALUE></PARAMVALUE>
</IMETHODRESPONSE></SIMPLERSP>
</MESSAGE></CIM>`
}

type seqSender struct {
	replies []string
	i       int
	calls   int
}

func (s *seqSender) Send(_ context.Context, _, _ string, _ bool, body []byte) (*transport.Result, error) {
	s.calls++
	reply := s.replies[s.i]
	if s.i < len(s.replies)-1 {
		s.i++
	}
	return &transport.Result{Body: []byte(reply), RequestLen: len(body), ReplyLen: len(reply)}, nil
}

func TestPullLifecycle_OpenPullClose(t *testing.T) {
	t.Parallel()

	fs := &seqSender{replies: []string{
		enumContextReply("ctx-1", false),
		enumContextReply("ctx-1", true),
	}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	batch, err := conn.OpenEnumerateInstances(context.Background(), "", "PyWBEM_Person")
	if err != nil {
		t.Fatalf("OpenEnumerateInstances error = %v", err)
	}
	if batch.EndOfSequence {
		t.Fatal("batch.EndOfSequence = true, want false on first open")
	}
	if batch.EnumerationContext != "ctx-1" {
		t.Fatalf("EnumerationContext = %q", batch.EnumerationContext)
	}

	batch2, err := conn.PullInstancesWithPath(context.Background(), "ctx-1", 10)
	if err != nil {
		t.Fatalf("PullInstancesWithPath error = %v", err)
	}
	if !batch2.EndOfSequence {
		t.Fatal("batch2.EndOfSequence = false, want true")
	}

	// Once EndOfSequence is reported, the context is dropped locally:
	// a further Pull must fail without ever reaching the transport.
	callsBefore := fs.calls
	if _, err := conn.PullInstancesWithPath(context.Background(), "ctx-1", 10); err == nil {
		t.Fatal("PullInstancesWithPath on a closed context error = nil, want ModelError")
	}
	if fs.calls != callsBefore {
		t.Errorf("transport calls = %d after closed-context pull, want unchanged %d", fs.calls, callsBefore)
	}
}

func TestPullLifecycle_CloseBeforeEndOfSequence(t *testing.T) {
	t.Parallel()

	fs := &seqSender{replies: []string{enumContextReply("ctx-2", false)}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	if _, err := conn.OpenEnumerateInstances(context.Background(), "", "PyWBEM_Person"); err != nil {
		t.Fatalf("OpenEnumerateInstances error = %v", err)
	}

	callsBeforeClose := fs.calls
	if err := conn.CloseEnumeration(context.Background(), "ctx-2"); err != nil {
		t.Fatalf("CloseEnumeration error = %v", err)
	}
	if fs.calls != callsBeforeClose+1 {
		t.Errorf("transport calls = %d after CloseEnumeration, want %d", fs.calls, callsBeforeClose+1)
	}

	// A second close on the same (now-closed) context must fail locally.
	callsBeforeSecondClose := fs.calls
	if err := conn.CloseEnumeration(context.Background(), "ctx-2"); err == nil {
		t.Fatal("second CloseEnumeration error = nil, want ModelError")
	}
	if fs.calls != callsBeforeSecondClose {
		t.Errorf("transport calls = %d after redundant close, want unchanged %d", fs.calls, callsBeforeSecondClose)
	}
}

func TestPullLifecycle_UnknownContextFailsLocally(t *testing.T) {
	t.Parallel()

	fs := &seqSender{replies: []string{enumContextReply("ctx-3", false)}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	if _, err := conn.PullInstancesWithPath(context.Background(), "never-opened", 1); err == nil {
		t.Fatal("PullInstancesWithPath on an unknown context error = nil, want ModelError")
	}
	if fs.calls != 0 {
		t.Errorf("transport calls = %d, want 0 for an unopened context", fs.calls)
	}
}

func TestOpenEnumerateInstances_EndOfSequenceImmediately(t *testing.T) {
	t.Parallel()

	fs := &seqSender{replies: []string{enumContextReply("", true)}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	batch, err := conn.OpenEnumerateInstances(context.Background(), "", "PyWBEM_Person")
	if err != nil {
		t.Fatalf("OpenEnumerateInstances error = %v", err)
	}
	if !batch.EndOfSequence {
		t.Fatal("batch.EndOfSequence = false, want true")
	}

	// No context was ever registered, so a Pull against it must fail locally.
	if _, err := conn.PullInstancesWithPath(context.Background(), "", 1); err == nil {
		t.Fatal("PullInstancesWithPath on an empty/never-opened context error = nil, want ModelError")
	}
}

func TestOpenAssociatorInstances_DecodesNamedInstances(t *testing.T) {
	t.Parallel()

	// The fixture carries no EnumerationContext/EndOfSequence at all,
	// which a single-shot (non-paged) Open reply is free to omit;
	// OpenAssociatorInstances must still return the decoded instances
	// without registering a local enumeration.
	fs := &seqSender{replies: []string{openEnumOneMoreBatch}}
	conn := engine.New(engine.Config{Sender: fs})

	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	batch, err := conn.OpenAssociatorInstances(context.Background(), "", path, "", "", "")
	if err != nil {
		t.Fatalf("OpenAssociatorInstances error = %v", err)
	}
	if len(batch.Instances) != 1 {
		t.Fatalf("len(batch.Instances) = %d, want 1", len(batch.Instances))
	}
}
