package metrics

import (
	"context"
	"testing"
)

func TestServerDisabledValues(t *testing.T) {
	for _, addr := range []string{"", "off", "OFF", "disabled", "false"} {
		if !serverDisabled(addr) {
			t.Fatalf("serverDisabled(%q) = false, want true", addr)
		}
	}
	if serverDisabled(":9090") {
		t.Fatal("serverDisabled(\":9090\") = true, want false")
	}
}

func TestStartServerDisabledReturnsNil(t *testing.T) {
	srv, errCh := StartServer(context.Background(), "off")
	if srv != nil || errCh != nil {
		t.Fatalf("expected nil server and channel, got %v, %v", srv, errCh)
	}
}
