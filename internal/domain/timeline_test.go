package domain

import (
	"testing"
	"time"
)

var (
	t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	t1 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	t2 = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
)

func userNamed(id, name string) *User {
	return &User{ID: id, Name: name}
}

func TestTimelineAlwaysOpensAtCreation(t *testing.T) {
	wo := WorkOrder{
		ID:        "ot-1",
		Status:    StatusOpen,
		CreatedAt: t0,
		Creator:   userNamed("u-1", "Nadia"),
	}
	events := Timeline(wo)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	first := events[0]
	if first.Status != StatusOpen {
		t.Fatalf("first event status = %s, want OPEN", first.Status)
	}
	if !first.Timestamp.Equal(t0) {
		t.Fatalf("first event timestamp = %v, want createdAt", first.Timestamp)
	}
	if first.ActorName != "Nadia" {
		t.Fatalf("first event actor = %q", first.ActorName)
	}
}

func TestTimelineMissingCreatorFallsBackToSystem(t *testing.T) {
	events := Timeline(WorkOrder{ID: "ot-1", Status: StatusOpen, CreatedAt: t0})
	if events[0].ActorName != "System" {
		t.Fatalf("actor = %q, want System", events[0].ActorName)
	}
}

func TestTimelineAssignmentsPreserveListOrder(t *testing.T) {
	half := t0.Add(30 * time.Minute)
	wo := WorkOrder{
		ID:        "ot-2",
		Status:    StatusOpen,
		CreatedAt: t0,
		Creator:   userNamed("u-1", "Nadia"),
		Intervenants: []Intervenant{
			// Deliberately out of timestamp order: list order must win.
			{User: userNamed("u-3", "Bruno"), AssignedAt: t1, AssignedBy: userNamed("u-1", "Nadia")},
			{User: userNamed("u-2", "Alice"), AssignedAt: half},
		},
	}
	events := Timeline(wo)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[1].Status != StatusAssigned || events[2].Status != StatusAssigned {
		t.Fatalf("expected ASSIGNED events after OPEN, got %s then %s", events[1].Status, events[2].Status)
	}
	if events[1].Label != "Assigned to Bruno" || events[2].Label != "Assigned to Alice" {
		t.Fatalf("assignment order not preserved: %q then %q", events[1].Label, events[2].Label)
	}
	if events[1].ActorName != "Nadia" {
		t.Fatalf("assigner actor = %q", events[1].ActorName)
	}
	if events[2].ActorName != "System" {
		t.Fatalf("missing assigner should fall back to System, got %q", events[2].ActorName)
	}
}

func TestTimelineInProgressActorFallbackChain(t *testing.T) {
	cases := []struct {
		name      string
		startedBy *User
		ivs       []Intervenant
		want      string
	}{
		{"started by recorded user", userNamed("u-9", "Omar"), nil, "Omar"},
		{"falls back to first intervenant", nil, []Intervenant{{User: userNamed("u-2", "Alice"), AssignedAt: t0}}, "Alice"},
		{"ignores later intervenants", nil, []Intervenant{{AssignedAt: t0}, {User: userNamed("u-2", "Alice"), AssignedAt: t1}}, "Intervenant"},
		{"falls back to placeholder", nil, nil, "Intervenant"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			started := t1
			wo := WorkOrder{
				ID:           "ot-3",
				Status:       StatusInProgress,
				CreatedAt:    t0,
				StartedAt:    &started,
				StartedBy:    tc.startedBy,
				Intervenants: tc.ivs,
			}
			events := Timeline(wo)
			last := events[len(events)-1]
			if last.Status != StatusInProgress {
				t.Fatalf("last event status = %s", last.Status)
			}
			if last.ActorName != tc.want {
				t.Fatalf("actor = %q, want %q", last.ActorName, tc.want)
			}
		})
	}
}

func TestTimelineClosedTerminalEvent(t *testing.T) {
	started, closed := t1, t2
	wo := WorkOrder{
		ID:        "ot-4",
		Status:    StatusClosed,
		CreatedAt: t0,
		StartedAt: &started,
		ClosedAt:  &closed,
		ClosedBy:  userNamed("u-2", "Alice"),
	}
	events := Timeline(wo)
	last := events[len(events)-1]
	if last.Status != StatusClosed {
		t.Fatalf("terminal status = %s, want CLOSED", last.Status)
	}
	if !last.Timestamp.Equal(t2) {
		t.Fatalf("terminal timestamp = %v", last.Timestamp)
	}
	if last.Reason != "" {
		t.Fatalf("closed event should carry no reason, got %q", last.Reason)
	}
	terminalCount := 0
	for _, ev := range events {
		if ev.Status == StatusClosed || ev.Status == StatusRejected {
			terminalCount++
		}
	}
	if terminalCount != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", terminalCount)
	}
}

func TestTimelineRejectedCarriesReason(t *testing.T) {
	closed := t2
	wo := WorkOrder{
		ID:              "ot-5",
		Status:          StatusRejected,
		CreatedAt:       t0,
		ClosedAt:        &closed,
		RejectionReason: "duplicate request",
		Intervenants:    []Intervenant{{User: userNamed("u-2", "Alice"), AssignedAt: t1}},
	}
	events := Timeline(wo)
	last := events[len(events)-1]
	if last.Status != StatusRejected {
		t.Fatalf("terminal status = %s, want REJECTED", last.Status)
	}
	if last.Reason != "duplicate request" {
		t.Fatalf("reason = %q", last.Reason)
	}
	if last.ActorName != "Alice" {
		t.Fatalf("closer fallback = %q, want first intervenant", last.ActorName)
	}
}

func TestTimelineRejectedWithoutClosedAtOmitsTerminal(t *testing.T) {
	wo := WorkOrder{
		ID:              "ot-6",
		Status:          StatusRejected,
		CreatedAt:       t0,
		RejectionReason: "never closed",
	}
	events := Timeline(wo)
	for _, ev := range events {
		if ev.Status == StatusRejected {
			t.Fatalf("unexpected terminal event: %+v", ev)
		}
	}
}

func TestTimelineExampleFromWorkflow(t *testing.T) {
	// IN_PROGRESS record with one intervenant: OPEN, ASSIGNED, IN_PROGRESS.
	half := t0.Add(30 * time.Minute)
	started := t1
	wo := WorkOrder{
		ID:           "ot-7",
		Status:       StatusInProgress,
		CreatedAt:    t0,
		StartedAt:    &started,
		Intervenants: []Intervenant{{User: userNamed("u-2", "Alice"), AssignedAt: half}},
	}
	events := Timeline(wo)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	wantStatuses := []Status{StatusOpen, StatusAssigned, StatusInProgress}
	wantTimes := []time.Time{t0, half, t1}
	for i, ev := range events {
		if ev.Status != wantStatuses[i] {
			t.Fatalf("event[%d] status = %s, want %s", i, ev.Status, wantStatuses[i])
		}
		if !ev.Timestamp.Equal(wantTimes[i]) {
			t.Fatalf("event[%d] timestamp = %v, want %v", i, ev.Timestamp, wantTimes[i])
		}
	}
}

func TestTimelineDoesNotMutateInput(t *testing.T) {
	closed := t2
	ivs := []Intervenant{{User: userNamed("u-2", "Alice"), AssignedAt: t1}}
	wo := WorkOrder{
		ID:           "ot-8",
		Status:       StatusClosed,
		CreatedAt:    t0,
		ClosedAt:     &closed,
		Intervenants: ivs,
	}
	_ = Timeline(wo)
	if len(wo.Intervenants) != 1 || wo.Intervenants[0].User.Name != "Alice" {
		t.Fatal("input record was mutated")
	}
}
