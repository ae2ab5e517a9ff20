package engine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/engine"
)

const invokeMethodOK = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><METHODRESPONSE NAME="Reboot"><RETURNVALUE PARAMTYPE="uint32"><VALUE>0</VALUE></RETURNVALUE>
<PARAMVALUE NAME="Message" PARAMTYPE="string"><VALUE>done</VALUE></PARAMVALUE>
</METHODRESPONSE></SIMPLERSP>
</MESSAGE></CIM>`

// TestInvokeMethod_ParamsKeepCallerOrder asserts the wire request lists
// in-parameters in exactly the order the caller inserted them into the
// OrderedMap, ruling out the random iteration order a plain Go map
// would have introduced.
func TestInvokeMethod_ParamsKeepCallerOrder(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{invokeMethodOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	path := cim.NewInstanceName("PyWBEM_ComputerSystem", "root/cimv2")
	path.SetKey("Name", cim.String("host1"))

	params := cim.NewOrderedMap[cim.Value]()
	params.Set("Delay", cim.Uint32(30))
	params.Set("Force", cim.Boolean(true))
	params.Set("Reason", cim.String("maintenance"))

	retVal, outParams, err := conn.InvokeMethod(context.Background(), "", path, nil, "Reboot", params)
	if err != nil {
		t.Fatalf("InvokeMethod error = %v", err)
	}
	if retVal == nil || retVal.Render() != "0" {
		t.Errorf("retVal = %v, want 0", retVal)
	}
	msg, ok := outParams.Get("Message")
	if !ok || msg.Render() != "done" {
		t.Errorf("out param Message = %+v, ok=%v", msg, ok)
	}

	body := fs.bodies[0]
	delayIdx := bytes.Index(body, []byte(`NAME="Delay"`))
	forceIdx := bytes.Index(body, []byte(`NAME="Force"`))
	reasonIdx := bytes.Index(body, []byte(`NAME="Reason"`))
	if delayIdx < 0 || forceIdx < 0 || reasonIdx < 0 {
		t.Fatalf("request body missing a parameter: %s", body)
	}
	if !(delayIdx < forceIdx && forceIdx < reasonIdx) {
		t.Errorf("request body params out of order (Delay=%d Force=%d Reason=%d): %s", delayIdx, forceIdx, reasonIdx, body)
	}
}

// TestInvokeMethod_NoParams exercises the nil inParams path (a
// no-argument extrinsic method call).
func TestInvokeMethod_NoParams(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{replies: []string{invokeMethodOK}}
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: fs})

	classPath := &cim.ClassName{ClassName: "PyWBEM_ComputerSystem", Namespace: "root/cimv2"}
	if _, _, err := conn.InvokeMethod(context.Background(), "", nil, classPath, "Reboot", nil); err != nil {
		t.Fatalf("InvokeMethod error = %v", err)
	}
	if bytes.Contains(fs.bodies[0], []byte("PARAMVALUE")) {
		t.Errorf("request body = %s, want no PARAMVALUE elements", fs.bodies[0])
	}
}
