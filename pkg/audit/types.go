package audit

import (
	"time"

	"github.com/vellum-app/vellum/pkg/roles"
)

// Action represents what happened to a user's access
type Action string

const (
	ActionShared      Action = "shared"
	ActionUnshared    Action = "unshared"
	ActionRoleChanged Action = "role_changed"
)

// Valid reports whether the action is one of the enumerated values
func (a Action) Valid() bool {
	switch a {
	case ActionShared, ActionUnshared, ActionRoleChanged:
		return true
	}
	return false
}

// Record is one immutable audit log entry describing an access-changing
// action. Exactly one of DocumentID / ProjectID denotes the scope the action
// applied to; document-scoped records also carry the owning project for
// reporting. Role is nil for "unshared" records. Once written, a record is
// never mutated or deleted (retention sweeps aside).
type Record struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	ActorID  *int64 `json:"actor_id,omitempty"`
	TargetID *int64 `json:"target_id,omitempty"`

	Role   *string `json:"role,omitempty"`
	Action Action  `json:"action"`

	DocumentID *int64 `json:"document_id,omitempty"`
	ProjectID  *int64 `json:"project_id,omitempty"`
}

// DocumentRecord builds a document-scoped record
func DocumentRecord(actorID, targetID, documentID, projectID int64, action Action, role *roles.DocumentRole) *Record {
	r := &Record{
		ActorID:    &actorID,
		TargetID:   &targetID,
		Action:     action,
		DocumentID: &documentID,
		ProjectID:  &projectID,
	}
	if role != nil {
		s := string(*role)
		r.Role = &s
	}
	return r
}

// ProjectRecord builds a project-scoped record
func ProjectRecord(actorID, targetID, projectID int64, action Action, role *roles.ProjectRole) *Record {
	r := &Record{
		ActorID:   &actorID,
		TargetID:  &targetID,
		Action:    action,
		ProjectID: &projectID,
	}
	if role != nil {
		s := string(*role)
		r.Role = &s
	}
	return r
}

// Filter holds optional predicates for querying audit records. Unset fields
// are no-ops; set fields combine with logical AND.
type Filter struct {
	DocumentID *int64
	ProjectID  *int64
	ActorID    *int64
	TargetID   *int64
	Action     *Action

	Since *time.Time
	Until *time.Time

	Limit  int
	Offset int
}

// RetentionPolicy defines how long audit records are kept
type RetentionPolicy struct {
	RetentionDays int
}

// DefaultRetentionPolicy keeps records for two years; permission history is
// the kind of record auditors come back for
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{RetentionDays: 730}
}
