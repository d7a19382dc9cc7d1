package enums

import "testing"

func TestServiceOrderStatusWeightsFollowDisplayOrder(t *testing.T) {
	expected := []ServiceOrderStatus{
		ServiceOrderStatusNotStarted,
		ServiceOrderStatusStarted,
		ServiceOrderStatusForQuote,
		ServiceOrderStatusQuoteSent,
		ServiceOrderStatusAwaitingParts,
		ServiceOrderStatusPartsReceived,
		ServiceOrderStatusCompleted,
		ServiceOrderStatusCancelled,
	}
	for weight, status := range expected {
		if got := status.Weight(); got != weight {
			t.Fatalf("status %s expected weight %d got %d", status, weight, got)
		}
	}
	if ServiceOrderStatus("archived").Weight() != -1 {
		t.Fatalf("unknown status should have weight -1")
	}
	if ServiceOrderStatus("archived").IsValid() {
		t.Fatalf("unknown status should be invalid")
	}
}

func TestServiceOrderStatusLabel(t *testing.T) {
	cases := map[ServiceOrderStatus]string{
		ServiceOrderStatusNotStarted:    "NOT STARTED",
		ServiceOrderStatusAwaitingParts: "AWAITING PARTS",
		ServiceOrderStatusCancelled:     "CANCELLED",
	}
	for status, label := range cases {
		if got := status.Label(); got != label {
			t.Fatalf("status %s expected label %q got %q", status, label, got)
		}
	}
}

func TestParseServiceOrderStatusAcceptsLabels(t *testing.T) {
	for _, raw := range []string{"awaiting_parts", "AWAITING PARTS", " Awaiting-Parts "} {
		got, err := ParseServiceOrderStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != ServiceOrderStatusAwaitingParts {
			t.Fatalf("parse %q got %s", raw, got)
		}
	}
	if _, err := ParseServiceOrderStatus("done"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestServiceOrderStatusTerminal(t *testing.T) {
	for _, status := range ServiceOrderStatuses() {
		want := status == ServiceOrderStatusCompleted || status == ServiceOrderStatusCancelled
		if status.IsTerminal() != want {
			t.Fatalf("status %s terminal mismatch", status)
		}
	}
}

func TestStorePersistable(t *testing.T) {
	if !StoreMain.IsPersistable() || !StoreBranch.IsPersistable() {
		t.Fatalf("branches should be persistable")
	}
	if StoreAll.IsPersistable() {
		t.Fatalf("aggregate store must never be persisted")
	}
	if !StoreAll.IsValid() {
		t.Fatalf("aggregate store is a valid filter")
	}
	if _, err := ParseStore("warehouse"); err == nil {
		t.Fatalf("expected error for unknown store")
	}
}

func TestUserRoleAllStoresView(t *testing.T) {
	if UserRoleTechnician.CanViewAllStores() {
		t.Fatalf("technicians are scoped to their store")
	}
	if !UserRoleBackOffice.CanViewAllStores() {
		t.Fatalf("back office may view all stores")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventServiceOrderCancelled.IsValid() || OutboxEventType("order_shipped").IsValid() {
		t.Fatalf("unexpected event type validity")
	}
	if !AggregateServiceOrder.IsValid() || OutboxAggregateType("client").IsValid() {
		t.Fatalf("unexpected aggregate validity")
	}
	if !OutboxDLQReasonNonRetryable.IsValid() || OutboxDLQErrorReason("").IsValid() {
		t.Fatalf("unexpected dlq reason validity")
	}
}
