package domain

import (
	"fmt"
	"time"
)

// StatusAssigned marks assignment entries in a derived timeline. It is a
// display-only marker, never a work-order state: CanTransition rejects it.
const StatusAssigned Status = "ASSIGNED"

// TimelineEvent is one entry in the reconstructed lifecycle history of a
// work order.
type TimelineEvent struct {
	Status    Status
	Timestamp time.Time
	ActorName string
	Label     string
	Reason    string
}

// Timeline derives an ordered lifecycle history from a flat work-order
// record. Pure: no I/O, the input is not mutated.
//
// Ordering: the OPEN event always comes first, followed by one ASSIGNED
// event per intervenant in list order (not timestamp order), then the
// IN_PROGRESS event when a start occurred, then the terminal event when the
// record carries a close timestamp. A REJECTED record without closedAt
// yields no terminal event.
func Timeline(wo WorkOrder) []TimelineEvent {
	events := make([]TimelineEvent, 0, len(wo.Intervenants)+3)

	creator := "System"
	if wo.Creator != nil && wo.Creator.Name != "" {
		creator = wo.Creator.Name
	}
	events = append(events, TimelineEvent{
		Status:    StatusOpen,
		Timestamp: wo.CreatedAt,
		ActorName: creator,
		Label:     "Created",
	})

	for _, iv := range wo.Intervenants {
		assigner := "System"
		if iv.AssignedBy != nil && iv.AssignedBy.Name != "" {
			assigner = iv.AssignedBy.Name
		}
		events = append(events, TimelineEvent{
			Status:    StatusAssigned,
			Timestamp: iv.AssignedAt,
			ActorName: assigner,
			Label:     fmt.Sprintf("Assigned to %s", iv.IntervenantName()),
		})
	}

	if wo.StartedAt != nil {
		events = append(events, TimelineEvent{
			Status:    StatusInProgress,
			Timestamp: *wo.StartedAt,
			ActorName: actorFallback(wo.StartedBy, wo.Intervenants),
			Label:     "In Progress",
		})
	}

	if wo.ClosedAt != nil {
		switch wo.Status {
		case StatusClosed:
			events = append(events, TimelineEvent{
				Status:    StatusClosed,
				Timestamp: *wo.ClosedAt,
				ActorName: actorFallback(wo.ClosedBy, wo.Intervenants),
				Label:     "Closed",
			})
		case StatusRejected:
			events = append(events, TimelineEvent{
				Status:    StatusRejected,
				Timestamp: *wo.ClosedAt,
				ActorName: actorFallback(wo.ClosedBy, wo.Intervenants),
				Label:     "Rejected",
				Reason:    wo.RejectionReason,
			})
		}
	}

	return events
}

// actorFallback resolves a transition actor name: the recorded user, else
// the first intervenant, else a generic placeholder.
func actorFallback(actor *User, intervenants []Intervenant) string {
	if actor != nil && actor.Name != "" {
		return actor.Name
	}
	if len(intervenants) > 0 {
		if name := intervenants[0].IntervenantName(); name != "" {
			return name
		}
	}
	return "Intervenant"
}
