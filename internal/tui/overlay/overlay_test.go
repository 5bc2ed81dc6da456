// ABOUTME: Tests for the overlay state machine
// ABOUTME: Verifies navigation is released only after the overlay has closed

package overlay

import "testing"

func TestCloseThen_ReleasesRouteOnlyAfterSettle(t *testing.T) {
	o := New("bell")
	o.Open()

	cmd := o.CloseThen("/offres/3")
	if cmd == nil {
		t.Fatal("expected a close command")
	}
	if o.State() != Closing {
		t.Errorf("expected closing, got %s", o.State())
	}
	if o.Visible() {
		t.Error("expected overlay hidden while closing")
	}

	msg, ok := cmd().(ClosedMsg)
	if !ok || msg.ID != "bell" {
		t.Fatalf("expected ClosedMsg for bell, got %#v", msg)
	}

	route, ok := o.Settle()
	if !ok || route != "/offres/3" {
		t.Errorf("expected /offres/3, got %q (ok=%v)", route, ok)
	}
	if o.State() != Closed {
		t.Errorf("expected closed, got %s", o.State())
	}

	if _, ok := o.Settle(); ok {
		t.Error("expected second settle to release nothing")
	}
}

func TestClose_WithoutRoute(t *testing.T) {
	o := New("menu")
	o.Open()
	cmd := o.Close()
	if cmd == nil {
		t.Fatal("expected a close command")
	}
	if route, ok := o.Settle(); ok || route != "" {
		t.Errorf("expected no route, got %q", route)
	}
}

func TestCloseThen_NotOpen(t *testing.T) {
	o := New("menu")
	if cmd := o.CloseThen("/cv"); cmd != nil {
		t.Error("expected no command when already closed")
	}
	if o.State() != Closed {
		t.Errorf("expected closed, got %s", o.State())
	}
}

func TestOpen_DropsPendingRoute(t *testing.T) {
	o := New("bell")
	o.Open()
	o.CloseThen("/cv")
	o.Open()
	if _, ok := o.Settle(); ok {
		t.Error("expected reopening to cancel the pending route")
	}
	if o.State() != Open {
		t.Errorf("expected open, got %s", o.State())
	}
}
