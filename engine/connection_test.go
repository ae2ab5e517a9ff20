package engine_test

import (
	"bytes"
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/engine"
	"github.com/tony23/pywbem/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSender returns a fixed reply body for every call and records the
// requests it observed, standing in for the real transport the way the
// recorder's replay mode would.
type fakeSender struct {
	replies []string
	calls   []string
	bodies  [][]byte
	i       int
}

func (f *fakeSender) Send(_ context.Context, cimMethod, _ string, _ bool, body []byte) (*transport.Result, error) {
	f.calls = append(f.calls, cimMethod)
	f.bodies = append(f.bodies, body)
	reply := f.replies[f.i]
	if f.i < len(f.replies)-1 {
		f.i++
	}
	return &transport.Result{Body: []byte(reply), RequestLen: len(body), ReplyLen: len(reply)}, nil
}

const getInstanceOK = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="GetInstance"><IRETURNVALUE>
<INSTANCE CLASSNAME="PyWBEM_Person">
<PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY>
<PROPERTY NAME="Address" TYPE="string"><VALUE>Fritz Town</VALUE></PROPERTY>
</INSTANCE>
</IRETURNVALUE></IMETHODRESPONSE></SIMPLERSP>
</MESSAGE></CIM>`

func TestGetInstance_HappyPath(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	inst, err := conn.GetInstance(context.Background(), "", path, false)
	if err != nil {
		t.Fatalf("GetInstance error = %v", err)
	}
	if inst.ClassName != "PyWBEM_Person" {
		t.Errorf("ClassName = %q", inst.ClassName)
	}
	addr, ok := inst.Property("address")
	if !ok || addr.Value.Render() != "Fritz Town" {
		t.Errorf("Address property = %+v, ok=%v", addr, ok)
	}
}

func TestGetInstance_Idempotence(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})
	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	for i := 0; i < 2; i++ {
		if _, err := conn.GetInstance(context.Background(), "", path, false); err != nil {
			t.Fatalf("GetInstance[%d] error = %v", i, err)
		}
	}
	if len(fs.calls) != 2 {
		t.Fatalf("len(calls) = %d, want 2", len(fs.calls))
	}
}

func TestStats_RequestReplyLen(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs, StatsEnabled: true})
	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	if _, err := conn.GetInstance(context.Background(), "", path, false); err != nil {
		t.Fatalf("GetInstance error = %v", err)
	}
	st := conn.Stats()["GetInstance"]
	if st.Count != 1 {
		t.Errorf("Count = %d, want 1", st.Count)
	}
	if int(st.ReplyLenSum) != len(getInstanceOK) {
		t.Errorf("ReplyLenSum = %d, want %d", st.ReplyLenSum, len(getInstanceOK))
	}
}

func TestStats_DisabledLeavesZero(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})
	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	if _, err := conn.GetInstance(context.Background(), "", path, false); err != nil {
		t.Fatalf("GetInstance error = %v", err)
	}
	if len(conn.Stats()) != 0 {
		t.Errorf("Stats() = %+v, want empty when disabled", conn.Stats())
	}
}

const accessDeniedResp = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="GetInstance">
<ERROR CODE="2" DESCRIPTION="denied"/>
</IMETHODRESPONSE></SIMPLERSP>
</MESSAGE></CIM>`

func TestGetInstance_AccessDenied(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{accessDeniedResp}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})
	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	_, err := conn.GetInstance(context.Background(), "", path, false)
	if err == nil {
		t.Fatal("GetInstance error = nil, want CIM_ERR_ACCESS_DENIED")
	}
}

func TestResolveNamespace_Precedence(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK, getInstanceOK, getInstanceOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/default", Sender: fs})

	// Path namespace wins over the connection default.
	pathOnly := cim.NewInstanceName("PyWBEM_Person", "root/frompath")
	pathOnly.SetKey("Name", cim.String("Fritz"))
	if _, err := conn.GetInstance(context.Background(), "", pathOnly, false); err != nil {
		t.Fatalf("GetInstance (path namespace) error = %v", err)
	}
	if !bytes.Contains(fs.bodies[0], []byte(`NAME="frompath"`)) {
		t.Errorf("request 0 body = %s, want NAMESPACE NAME=\"frompath\"", fs.bodies[0])
	}

	// An explicit operation namespace wins over the path's.
	pathAndOp := cim.NewInstanceName("PyWBEM_Person", "root/frompath")
	pathAndOp.SetKey("Name", cim.String("Fritz"))
	if _, err := conn.GetInstance(context.Background(), "root/explicit", pathAndOp, false); err != nil {
		t.Fatalf("GetInstance (explicit namespace) error = %v", err)
	}
	if !bytes.Contains(fs.bodies[1], []byte(`NAME="explicit"`)) {
		t.Errorf("request 1 body = %s, want NAMESPACE NAME=\"explicit\"", fs.bodies[1])
	}

	// Neither op nor path supplies one: falls back to the connection default.
	bare := &cim.InstanceName{ClassName: "PyWBEM_Person"}
	if _, err := conn.GetInstance(context.Background(), "", bare, false); err != nil {
		t.Fatalf("GetInstance (default namespace) error = %v", err)
	}
	if !bytes.Contains(fs.bodies[2], []byte(`NAME="default"`)) {
		t.Errorf("request 2 body = %s, want NAMESPACE NAME=\"default\"", fs.bodies[2])
	}
}

func TestNextMessageID_MonotonicAcrossCalls(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK, getInstanceOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})
	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	if _, err := conn.GetInstance(context.Background(), "", path, false); err != nil {
		t.Fatalf("GetInstance[0] error = %v", err)
	}
	if _, err := conn.GetInstance(context.Background(), "", path, false); err != nil {
		t.Fatalf("GetInstance[1] error = %v", err)
	}
	if !bytes.Contains(fs.bodies[0], []byte(`ID="1"`)) {
		t.Errorf("request 0 MESSAGE ID not 1: %s", fs.bodies[0])
	}
	if !bytes.Contains(fs.bodies[1], []byte(`ID="2"`)) {
		t.Errorf("request 1 MESSAGE ID not 2: %s", fs.bodies[1])
	}
}

func TestResolveNamespace_MissingIsModelError(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{getInstanceOK}}
	conn := engine.New(engine.Config{Sender: fs})
	path := &cim.InstanceName{ClassName: "PyWBEM_Person"}
	_, err := conn.GetInstance(context.Background(), "", path, false)
	if err == nil {
		t.Fatal("GetInstance with no namespace anywhere error = nil, want ModelError")
	}
}
