package contract

import (
	"errors"
	"testing"
)

func TestInitLedgerSeedsExactlyOneAdmin(t *testing.T) {
	f := newFixture()
	if err := f.cc.InitLedger(f.as("admin-1")); err != nil {
		t.Fatalf("first InitLedger failed: %v", err)
	}

	isAdmin, err := f.cc.HasRole(f.as("anyone"), "admin-1", "admin")
	if err != nil {
		t.Fatalf("HasRole failed: %v", err)
	}
	if !isAdmin {
		t.Fatal("expected initializing identity to hold the admin role")
	}

	if err := f.cc.InitLedger(f.as("admin-2")); err == nil {
		t.Fatal("expected second InitLedger to fail once an admin exists")
	}
	if held, _ := f.cc.HasRole(f.as("anyone"), "admin-2", "admin"); held {
		t.Fatal("failed InitLedger must not have granted admin")
	}
}

func TestGrantRevokeLifecycle(t *testing.T) {
	f := newInitializedFixture(t)
	ctx := f.as("anyone")

	if held, _ := f.cc.HasRole(ctx, "mfg-A", "manufacturer"); held {
		t.Fatal("role must not be held before any grant")
	}

	f.grant(t, "manufacturer", "mfg-A")
	if held, _ := f.cc.HasRole(ctx, "mfg-A", "manufacturer"); !held {
		t.Fatal("role must be held after grant")
	}

	if err := f.cc.RevokeRole(f.as("admin-1"), "manufacturer", "mfg-A"); err != nil {
		t.Fatalf("RevokeRole failed: %v", err)
	}
	if held, _ := f.cc.HasRole(ctx, "mfg-A", "manufacturer"); held {
		t.Fatal("role must not be held after revoke")
	}
}

func TestGrantRequiresAdmin(t *testing.T) {
	f := newInitializedFixture(t)

	err := f.cc.GrantRole(f.as("intruder"), "manufacturer", "mfg-A")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if held, _ := f.cc.HasRole(f.as("anyone"), "mfg-A", "manufacturer"); held {
		t.Fatal("unauthorized grant must not assign the role")
	}

	err = f.cc.RevokeRole(f.as("intruder"), "admin", "admin-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for revoke, got %v", err)
	}
}

func TestGrantAndRevokeAreIdempotent(t *testing.T) {
	f := newInitializedFixture(t)

	f.grant(t, "retailer", "ret-C")
	eventsAfterFirst := len(f.stub.events)
	f.grant(t, "retailer", "ret-C")
	if len(f.stub.events) != eventsAfterFirst {
		t.Fatal("re-granting a held role must not emit another event")
	}

	if err := f.cc.RevokeRole(f.as("admin-1"), "retailer", "ret-C"); err != nil {
		t.Fatalf("RevokeRole failed: %v", err)
	}
	eventsAfterRevoke := len(f.stub.events)
	if err := f.cc.RevokeRole(f.as("admin-1"), "retailer", "ret-C"); err != nil {
		t.Fatalf("revoking an unheld role must succeed, got %v", err)
	}
	if len(f.stub.events) != eventsAfterRevoke {
		t.Fatal("re-revoking an unheld role must not emit another event")
	}
}

func TestAdminRoleIsSelfAdministering(t *testing.T) {
	f := newInitializedFixture(t)

	f.grant(t, "admin", "admin-2")
	if err := f.cc.GrantRole(f.as("admin-2"), "distributor", "dist-B"); err != nil {
		t.Fatalf("grant by second admin failed: %v", err)
	}
	if held, _ := f.cc.HasRole(f.as("anyone"), "dist-B", "distributor"); !held {
		t.Fatal("expected distributor role granted by the second admin")
	}
}

func TestGrantRejectsUnknownRole(t *testing.T) {
	f := newInitializedFixture(t)
	if err := f.cc.GrantRole(f.as("admin-1"), "sommelier", "x"); err == nil {
		t.Fatal("expected an error for an unknown role name")
	}
}

func TestGetRoleMembers(t *testing.T) {
	f := newInitializedFixture(t)
	f.grant(t, "manufacturer", "mfg-A")
	f.grant(t, "manufacturer", "mfg-B")
	f.grant(t, "retailer", "ret-C")
	if err := f.cc.RevokeRole(f.as("admin-1"), "manufacturer", "mfg-B"); err != nil {
		t.Fatalf("RevokeRole failed: %v", err)
	}

	members, err := f.cc.GetRoleMembers(f.as("anyone"), "manufacturer")
	if err != nil {
		t.Fatalf("GetRoleMembers failed: %v", err)
	}
	if len(members) != 1 || members[0] != "mfg-A" {
		t.Fatalf("expected [mfg-A], got %v", members)
	}

	none, err := f.cc.GetRoleMembers(f.as("anyone"), "distributor")
	if err != nil {
		t.Fatalf("GetRoleMembers failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no distributors, got %v", none)
	}
}

func TestRoleEventsCarryRoleAccountSender(t *testing.T) {
	f := newInitializedFixture(t)
	f.grant(t, "manufacturer", "mfg-A")

	event := f.lastEvent(t)
	if event.name != "RoleGranted" {
		t.Fatalf("expected RoleGranted event, got %q", event.name)
	}
	payload := decodeEventPayload(t, event)
	if payload["role"] != "manufacturer" || payload["account"] != "mfg-A" || payload["sender"] != "admin-1" {
		t.Fatalf("unexpected RoleGranted payload: %v", payload)
	}

	if err := f.cc.RevokeRole(f.as("admin-1"), "manufacturer", "mfg-A"); err != nil {
		t.Fatalf("RevokeRole failed: %v", err)
	}
	event = f.lastEvent(t)
	if event.name != "RoleRevoked" {
		t.Fatalf("expected RoleRevoked event, got %q", event.name)
	}
}
