package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Fatalf("parse %q: %v", status, err)
		}
		if got != status {
			t.Fatalf("expected %q got %q", status, got)
		}
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusPending:   false,
		OrderStatusApproved:  false,
		OrderStatusRejected:  true,
		OrderStatusCancelled: true,
		OrderStatusCompleted: true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s terminal: expected %v got %v", status, want, got)
		}
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if _, err := ParsePaymentMethod("cod"); err != nil {
		t.Fatalf("cod should parse: %v", err)
	}
	if _, err := ParsePaymentMethod("cash"); err == nil {
		t.Fatal("cash is not a storefront payment method")
	}
}

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("admin")
	if err != nil || role != UserRoleAdmin {
		t.Fatalf("expected admin role, got %q err=%v", role, err)
	}
	if UserRole("vendor").IsValid() {
		t.Fatal("vendor must not be a valid role")
	}
}

func TestOutboxDLQErrorReason(t *testing.T) {
	replayable := map[OutboxDLQErrorReason]bool{
		OutboxDLQReasonMaxAttempts:  true,
		OutboxDLQReasonNonRetryable: false,
		OutboxDLQReasonUnroutable:   true,
	}
	for reason, want := range replayable {
		if !reason.IsValid() {
			t.Fatalf("%s should be valid", reason)
		}
		if got := reason.Replayable(); got != want {
			t.Fatalf("%s replayable: expected %v got %v", reason, want, got)
		}
	}
	if OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatal("unknown reason must be invalid")
	}
}
