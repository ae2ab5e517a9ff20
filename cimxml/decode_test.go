package cimxml_test

import (
	"errors"
	"testing"

	"github.com/tony23/pywbem/cimerr"
	"github.com/tony23/pywbem/cimxml"
)

const getInstanceReply = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1000" PROTOCOLVERSION="1.0">
<SIMPLERSP>
<IMETHODRESPONSE NAME="GetInstance">
<IRETURNVALUE>
<INSTANCE CLASSNAME="PyWBEM_Person">
<PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY>
<PROPERTY NAME="Age" TYPE="uint32"><VALUE>42</VALUE></PROPERTY>
</INSTANCE>
</IRETURNVALUE>
</IMETHODRESPONSE>
</SIMPLERSP>
</MESSAGE>
</CIM>`

func TestDecodeResponse_GetInstance(t *testing.T) {
	t.Parallel()

	resp, err := cimxml.DecodeResponse([]byte(getInstanceReply))
	if err != nil {
		t.Fatalf("DecodeResponse error = %v", err)
	}
	if resp.Err != nil {
		t.Fatalf("DecodeResponse returned Err = %v, want nil", resp.Err)
	}
	if resp.MessageID != "1000" {
		t.Errorf("MessageID = %q, want %q", resp.MessageID, "1000")
	}
	if resp.Method != "GetInstance" {
		t.Errorf("Method = %q, want %q", resp.Method, "GetInstance")
	}
	if len(resp.Return.Instances) != 1 {
		t.Fatalf("len(Instances) = %d, want 1", len(resp.Return.Instances))
	}
	inst := resp.Return.Instances[0]
	if inst.ClassName != "PyWBEM_Person" {
		t.Errorf("ClassName = %q, want %q", inst.ClassName, "PyWBEM_Person")
	}
	p, ok := inst.Property("name")
	if !ok {
		t.Fatal("Property(\"name\") not found (case-insensitive lookup failed)")
	}
	if p.Value.Render() != "Fritz" {
		t.Errorf("Name value = %q, want %q", p.Value.Render(), "Fritz")
	}
}

const accessDeniedReply = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1001" PROTOCOLVERSION="1.0">
<SIMPLERSP>
<IMETHODRESPONSE NAME="GetInstance">
<ERROR CODE="2" DESCRIPTION="Access to the CIM server is denied"/>
</IMETHODRESPONSE>
</SIMPLERSP>
</MESSAGE>
</CIM>`

func TestDecodeResponse_AccessDenied(t *testing.T) {
	t.Parallel()

	resp, err := cimxml.DecodeResponse([]byte(accessDeniedReply))
	if err != nil {
		t.Fatalf("DecodeResponse error = %v", err)
	}
	if resp.Err == nil {
		t.Fatal("resp.Err = nil, want CIM_ERR_ACCESS_DENIED")
	}
	if resp.Err.Code != 2 {
		t.Errorf("Err.Code = %d, want 2", resp.Err.Code)
	}
	if resp.Err.Mnemonic() != "CIM_ERR_ACCESS_DENIED" {
		t.Errorf("Err.Mnemonic() = %q, want %q", resp.Err.Mnemonic(), "CIM_ERR_ACCESS_DENIED")
	}
}

const invalidNamespaceReply = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1002" PROTOCOLVERSION="1.0">
<SIMPLERSP>
<IMETHODRESPONSE NAME="EnumerateInstances">
<ERROR CODE="3" DESCRIPTION="The namespace root/bogus does not exist">
<INSTANCE CLASSNAME="PyWBEM_ErrorDetail">
<PROPERTY NAME="Namespace" TYPE="string"><VALUE>root/bogus</VALUE></PROPERTY>
</INSTANCE>
</ERROR>
</IMETHODRESPONSE>
</SIMPLERSP>
</MESSAGE>
</CIM>`

func TestDecodeResponse_InvalidNamespaceWithDetail(t *testing.T) {
	t.Parallel()

	resp, err := cimxml.DecodeResponse([]byte(invalidNamespaceReply))
	if err != nil {
		t.Fatalf("DecodeResponse error = %v", err)
	}
	if resp.Err == nil || resp.Err.Code != 3 {
		t.Fatalf("resp.Err = %+v, want code 3", resp.Err)
	}
	if len(resp.Err.Instances) != 1 {
		t.Fatalf("len(Err.Instances) = %d, want 1", len(resp.Err.Instances))
	}
	if resp.Err.Instances[0].ClassName != "PyWBEM_ErrorDetail" {
		t.Errorf("detail instance ClassName = %q", resp.Err.Instances[0].ClassName)
	}
}

func TestDecodeResponse_BadDTDVersion(t *testing.T) {
	t.Parallel()

	body := []byte(`<CIM CIMVERSION="2.0" DTDVERSION="1.9"><MESSAGE ID="1" PROTOCOLVERSION="1.0"><SIMPLERSP><IMETHODRESPONSE NAME="x"/></SIMPLERSP></MESSAGE></CIM>`)
	_, err := cimxml.DecodeResponse(body)
	if err == nil {
		t.Fatal("DecodeResponse with DTDVERSION 1.9 error = nil, want VersionError")
	}
	var verr *cimerr.VersionError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want *cimerr.VersionError", err)
	}
}

const pullOpenReply = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="2000" PROTOCOLVERSION="1.0">
<SIMPLERSP>
<IMETHODRESPONSE NAME="OpenEnumerateInstances">
<IRETURNVALUE>
<VALUE.NAMEDINSTANCE>
<INSTANCENAME CLASSNAME="PyWBEM_Person">
<KEYBINDING NAME="Name"><KEYVALUE VALUETYPE="string">Fritz</KEYVALUE></KEYBINDING>
</INSTANCENAME>
<INSTANCE CLASSNAME="PyWBEM_Person">
<PROPERTY NAME="Name" TYPE="string"><VALUE>Fritz</VALUE></PROPERTY>
</INSTANCE>
</VALUE.NAMEDINSTANCE>
</IRETURNVALUE>
<PARAMVALUE NAME="EnumerationContext" PARAMTYPE="string"><VALUE>ctx-123</VALUE></PARAMVALUE>
<PARAMVALUE NAME="EndOfSequence" PARAMTYPE="boolean"><VALUE>FALSE</VALUE></PARAMVALUE>
</IMETHODRESPONSE>
</SIMPLERSP>
</MESSAGE>
</CIM>`

func TestDecodeResponse_OpenEnumerationPullState(t *testing.T) {
	t.Parallel()

	resp, err := cimxml.DecodeResponse([]byte(pullOpenReply))
	if err != nil {
		t.Fatalf("DecodeResponse error = %v", err)
	}
	if resp.Return.EnumerationContext != "ctx-123" {
		t.Errorf("EnumerationContext = %q, want %q", resp.Return.EnumerationContext, "ctx-123")
	}
	if resp.Return.EndOfSequence {
		t.Error("EndOfSequence = true, want false")
	}
	if len(resp.Return.NamedInstances) != 1 {
		t.Fatalf("len(NamedInstances) = %d, want 1", len(resp.Return.NamedInstances))
	}
}
