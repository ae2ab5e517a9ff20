package cimerr_test

import (
	"testing"

	"github.com/tony23/pywbem/cimerr"
)

func TestMnemonic_KnownCodes(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		1: "CIM_ERR_FAILED",
		2: "CIM_ERR_ACCESS_DENIED",
		3: "CIM_ERR_INVALID_NAMESPACE",
		4: "CIM_ERR_INVALID_PARAMETER",
		5: "CIM_ERR_INVALID_CLASS",
		6: "CIM_ERR_NOT_FOUND",
	}
	for code, want := range cases {
		err := &cimerr.CIMError{Code: code, Description: "boom"}
		if got := err.Mnemonic(); got != want {
			t.Errorf("Mnemonic(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestMnemonic_UnknownCode(t *testing.T) {
	t.Parallel()

	if got := cimerr.Mnemonic(999); got != "CIM_ERR_UNKNOWN" {
		t.Errorf("Mnemonic(999) = %q, want CIM_ERR_UNKNOWN", got)
	}
}
