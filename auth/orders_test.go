package auth

import (
	"testing"

	"github.com/data-lunch/dlunch/storage/model"
)

func TestOrderGate(t *testing.T) {
	ac, backends := newTestContext(t, basicAuthConfig())
	if err := ac.InitializeFlags(); err != nil {
		t.Fatalf("InitializeFlags: %v", err)
	}
	v, err := backends.Flags.Get(model.FlagNoMoreOrders)
	if err != nil || v == nil || *v {
		t.Fatalf("expected no_more_orders seeded with false, got %v (%v)", v, err)
	}

	alice := NewAuthUser(ac, "alice")
	can, err := ac.CanPlaceOrder(alice)
	if err != nil || !can {
		t.Fatalf("expected orders to be allowed, got %v (%v)", can, err)
	}
	can, err = ac.CanPlaceOrder(NewAuthUser(ac, ""))
	if err != nil || can {
		t.Fatalf("expected anonymous users to be blocked, got %v (%v)", can, err)
	}

	if err = ac.SetNoMoreOrders(true); err != nil {
		t.Fatalf("SetNoMoreOrders: %v", err)
	}
	// initializing again must not reset the gate
	if err = ac.InitializeFlags(); err != nil {
		t.Fatalf("InitializeFlags: %v", err)
	}
	stopped, err := ac.NoMoreOrders()
	if err != nil || !stopped {
		t.Fatalf("expected orders to be stopped, got %v (%v)", stopped, err)
	}
	can, err = ac.CanPlaceOrder(alice)
	if err != nil || can {
		t.Fatalf("expected orders to be blocked, got %v (%v)", can, err)
	}
}

func TestClearGuestOverrides(t *testing.T) {
	ac, backends := newTestContext(t, basicAuthConfig())
	for _, u := range []string{"alice", "bob"} {
		mustAddPrivileged(t, ac, u, false)
		if err := NewAuthUser(ac, u).SetGuestOverride(true); err != nil {
			t.Fatalf("SetGuestOverride: %v", err)
		}
	}
	if err := ac.SetNoMoreOrders(false); err != nil {
		t.Fatalf("SetNoMoreOrders: %v", err)
	}
	n, err := ac.ClearGuestOverrides()
	if err != nil {
		t.Fatalf("ClearGuestOverrides: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 cleared overrides, got %d", n)
	}
	flags, err := backends.Flags.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(flags) != 1 || flags[0].ID != model.FlagNoMoreOrders {
		t.Fatalf("unexpected remaining flags: %+v", flags)
	}
}
