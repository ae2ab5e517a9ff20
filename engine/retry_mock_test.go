package engine_test

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/engine"
	"github.com/tony23/pywbem/engine/enginemock"
	"github.com/tony23/pywbem/transport"
)

// TestRetryIdempotent_GetVsDelete pins down the idempotent-retry
// contract (spec §4.4: Get*/Enumerate*/Pull*/Close* may be retried
// once on a connection reset, Create/Modify/Delete/Invoke never are)
// against the exact boolean a Connection passes its Sender, using a
// gomock double instead of a hand-rolled fake.
func TestRetryIdempotent_GetVsDelete(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sender := enginemock.NewMockSender(ctrl)
	conn := engine.New(engine.Config{DefaultNamespace: "root/cimv2", Sender: sender})

	path := cim.NewInstanceName("PyWBEM_Person", "root/cimv2")
	path.SetKey("Name", cim.String("Fritz"))

	sender.EXPECT().
		Send(gomock.Any(), "GetInstance", gomock.Any(), true, gomock.Any()).
		Return(&transport.Result{Body: []byte(getInstanceOK)}, nil)
	if _, err := conn.GetInstance(context.Background(), "", path, false); err != nil {
		t.Fatalf("GetInstance error = %v", err)
	}

	sender.EXPECT().
		Send(gomock.Any(), "DeleteInstance", gomock.Any(), false, gomock.Any()).
		Return(&transport.Result{Body: []byte(deleteInstanceOK)}, nil)
	if err := conn.DeleteInstance(context.Background(), "", path); err != nil {
		t.Fatalf("DeleteInstance error = %v", err)
	}
}

const deleteInstanceOK = `<?xml version="1.0" encoding="utf-8"?>
<CIM CIMVERSION="2.0" DTDVERSION="2.0">
<MESSAGE ID="1" PROTOCOLVERSION="1.0">
<SIMPLERSP><IMETHODRESPONSE NAME="DeleteInstance"><IRETURNVALUE/></IMETHODRESPONSE></SIMPLERSP>
</MESSAGE></CIM>`
