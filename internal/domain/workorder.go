package domain

import (
	"slices"
	"time"
)

type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusClosed     Status = "CLOSED"
	StatusRejected   Status = "REJECTED"
)

var validStatuses = []Status{StatusOpen, StatusInProgress, StatusClosed, StatusRejected}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var validPriorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is a directory entry returned by the backend.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Role  Role     `json:"role,omitempty"`
	Team  *TeamRef `json:"team,omitempty"`
}

// TeamRef is the embedded team reference carried on users.
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team groups users; member order is backend-defined and preserved.
type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Users []User `json:"users"`
}

// Intervenant links a work order to an assigned user with provenance.
type Intervenant struct {
	ID         string    `json:"id"`
	User       *User     `json:"user,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	AssignedAt time.Time `json:"assignedAt"`
	AssignedBy *User     `json:"assignedBy,omitempty"`
}

// CustomField is one name/value pair; list order is significant.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attachment is a stored file reference on a work order.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// WorkOrder is the central entity. The client treats every instance as a
// transient snapshot of the last successful fetch, replaced wholesale on
// refresh and never merged field by field.
type WorkOrder struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Action          string        `json:"action"`
	WorkPlace       string        `json:"workPlace"`
	WorkDate        string        `json:"workDate,omitempty"`
	LotNumber       string        `json:"lotNumber"`
	Priority        Priority      `json:"priority"`
	Impact          string        `json:"impact,omitempty"`
	Comment         string        `json:"comment,omitempty"`
	CustomFields    []CustomField `json:"customFields,omitempty"`
	Attachments     []Attachment  `json:"attachments,omitempty"`
	Status          Status        `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	StartedAt       *time.Time    `json:"startedAt,omitempty"`
	ClosedAt        *time.Time    `json:"closedAt,omitempty"`
	Creator         *User         `json:"creator,omitempty"`
	Intervenants    []Intervenant `json:"intervenants,omitempty"`
	StartedBy       *User         `json:"startedBy,omitempty"`
	ClosedBy        *User         `json:"closedBy,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
}

// DashboardStats carries the personal aggregate counts; recomputed
// server-side on every fetch, never mutated locally.
type DashboardStats struct {
	Created  StatusCounts `json:"created"`
	Assigned StatusCounts `json:"assigned"`
}

// StatusCounts buckets one ownership dimension by status.
type StatusCounts struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Closed     int `json:"closed"`
	Rejected   int `json:"rejected"`
}

// AdminStats carries the global aggregate counts for the admin dashboard.
type AdminStats struct {
	Global StatusCounts `json:"global"`
}

// Valid reports whether s is one of the four work-order states.
func (s Status) Valid() bool {
	return slices.Contains(validStatuses, s)
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// CanTransition reports whether the server-side workflow permits moving from
// s to next. Transitions are server-authoritative; the client only uses this
// to decide which actions to offer.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusInProgress || next == StatusRejected
	case StatusInProgress:
		return next == StatusClosed || next == StatusRejected
	default:
		return false
	}
}

// CanStart reports whether a start action may be requested.
func (s Status) CanStart() bool { return s.CanTransition(StatusInProgress) }

// CanComplete reports whether a complete action may be requested.
func (s Status) CanComplete() bool { return s.CanTransition(StatusClosed) }

// CanReject reports whether a reject action may be requested.
func (s Status) CanReject() bool { return s.CanTransition(StatusRejected) }

// CanAssign reports whether assignment may be requested.
func (s Status) CanAssign() bool { return s == StatusOpen }

// IntervenantName returns the display name of an assignment, falling back to
// the raw user id when the backend did not expand the user reference.
func (i Intervenant) IntervenantName() string {
	if i.User != nil && i.User.Name != "" {
		return i.User.Name
	}
	return i.UserID
}

// IntervenantID returns the user id of an assignment, preferring the
// expanded user reference over the flat id.
func (i Intervenant) IntervenantID() string {
	if i.User != nil && i.User.ID != "" {
		return i.User.ID
	}
	return i.UserID
}

// PartitionByStatus splits a fetched list into the IN_PROGRESS and CLOSED
// buckets shown on the personal dashboard. Matching is strict status
// equality; orders in any other state land in neither bucket.
func PartitionByStatus(orders []WorkOrder) (inProgress, closed []WorkOrder) {
	inProgress = make([]WorkOrder, 0, len(orders))
	closed = make([]WorkOrder, 0, len(orders))
	for _, wo := range orders {
		switch wo.Status {
		case StatusInProgress:
			inProgress = append(inProgress, wo)
		case StatusClosed:
			closed = append(closed, wo)
		}
	}
	return inProgress, closed
}
