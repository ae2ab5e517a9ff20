package cimxml_test

import (
	"strings"
	"testing"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/cimxml"
)

func TestEncodeRequest_GetInstance(t *testing.T) {
	t.Parallel()

	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	req := &cimxml.Request{
		MessageID: "1000",
		Method:    "GetInstance",
		Kind:      cimxml.Intrinsic,
		Namespace: "root/cimv2",
		Params: []cimxml.Param{
			{Name: "InstanceName", Value: path},
			{Name: "LocalOnly", Value: cim.Boolean(false)},
		},
	}

	var sb strings.Builder
	n, err := cimxml.EncodeRequest(&sb, req)
	if err != nil {
		t.Fatalf("EncodeRequest error = %v", err)
	}
	out := sb.String()
	if n != len(out) {
		t.Errorf("EncodeRequest returned %d, but wrote %d bytes", n, len(out))
	}
	for _, want := range []string{
		`<CIM CIMVERSION="2.0" DTDVERSION="2.0">`,
		`<MESSAGE ID="1000" PROTOCOLVERSION="1.0">`,
		`<IMETHODCALL NAME="GetInstance">`,
		`<NAMESPACE NAME="root"/><NAMESPACE NAME="cimv2"/>`,
		`<IPARAMVALUE NAME="InstanceName">`,
		`<INSTANCENAME CLASSNAME="PyWBEM_Person">`,
		`<KEYBINDING NAME="Name">`,
		`<IPARAMVALUE NAME="LocalOnly"><VALUE>FALSE</VALUE></IPARAMVALUE>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded request missing %q\nfull output: %s", want, out)
		}
	}
}

func TestEncodeRequest_AbsentParamOmitted(t *testing.T) {
	t.Parallel()

	req := &cimxml.Request{
		MessageID: "1",
		Method:    "EnumerateInstances",
		Kind:      cimxml.Intrinsic,
		Namespace: "root/cimv2",
		Params: []cimxml.Param{
			{Name: "ClassName", Value: &cim.ClassName{ClassName: "PyWBEM_Person"}},
			{Name: "DeepInheritance", Value: nil},
		},
	}
	var sb strings.Builder
	if _, err := cimxml.EncodeRequest(&sb, req); err != nil {
		t.Fatalf("EncodeRequest error = %v", err)
	}
	if strings.Contains(sb.String(), "DeepInheritance") {
		t.Errorf("absent parameter was emitted: %s", sb.String())
	}
}

func TestEncodeRequest_NamespaceNormalization(t *testing.T) {
	t.Parallel()

	req := &cimxml.Request{
		MessageID: "1",
		Method:    "EnumerateInstanceNames",
		Kind:      cimxml.Intrinsic,
		Namespace: "//root/mycim//",
		Params: []cimxml.Param{
			{Name: "ClassName", Value: &cim.ClassName{ClassName: "PyWBEM_Person"}},
		},
	}
	var sb strings.Builder
	if _, err := cimxml.EncodeRequest(&sb, req); err != nil {
		t.Fatalf("EncodeRequest error = %v", err)
	}
	want := `<NAMESPACE NAME="root"/><NAMESPACE NAME="mycim"/>`
	if !strings.Contains(sb.String(), want) {
		t.Errorf("output missing normalized namespace form %q:\n%s", want, sb.String())
	}
}

func TestEncodeRequest_MissingNamespaceRejected(t *testing.T) {
	t.Parallel()

	req := &cimxml.Request{MessageID: "1", Method: "GetInstance", Kind: cimxml.Intrinsic}
	var sb strings.Builder
	if _, err := cimxml.EncodeRequest(&sb, req); err == nil {
		t.Error("EncodeRequest with empty namespace error = nil, want ModelError")
	}
}
