package roles

// DocumentRole represents a role a user can hold on a document
type DocumentRole string

const (
	DocumentOwner     DocumentRole = "owner"
	DocumentEditor    DocumentRole = "editor"
	DocumentCommenter DocumentRole = "commenter"
)

// ProjectRole represents a role a user can hold in a project
type ProjectRole string

const (
	ProjectOwner  ProjectRole = "owner"
	ProjectEditor ProjectRole = "editor"
	ProjectViewer ProjectRole = "viewer"
)

// Capability represents a specific thing a role allows
type Capability string

const (
	CapabilityView         Capability = "view"
	CapabilityComment      Capability = "comment"
	CapabilityEdit         Capability = "edit"
	CapabilityManageAccess Capability = "manage_access"
)

// documentRanks orders document roles by capability. Higher rank implies
// every capability of the lower ranks.
var documentRanks = map[DocumentRole]int{
	DocumentCommenter: 1,
	DocumentEditor:    2,
	DocumentOwner:     3,
}

var projectRanks = map[ProjectRole]int{
	ProjectViewer: 1,
	ProjectEditor: 2,
	ProjectOwner:  3,
}

// Rank returns the ordering rank of the role, or 0 for unknown roles
func (r DocumentRole) Rank() int {
	return documentRanks[r]
}

// Valid reports whether the role is one of the enumerated document roles
func (r DocumentRole) Valid() bool {
	_, ok := documentRanks[r]
	return ok
}

// AtLeast reports whether the role ranks at or above other
func (r DocumentRole) AtLeast(other DocumentRole) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// Capabilities returns the capability set the role implies
func (r DocumentRole) Capabilities() []Capability {
	switch r {
	case DocumentOwner:
		return []Capability{CapabilityView, CapabilityComment, CapabilityEdit, CapabilityManageAccess}
	case DocumentEditor:
		return []Capability{CapabilityView, CapabilityComment, CapabilityEdit}
	case DocumentCommenter:
		return []Capability{CapabilityView, CapabilityComment}
	default:
		return nil
	}
}

// Rank returns the ordering rank of the role, or 0 for unknown roles
func (r ProjectRole) Rank() int {
	return projectRanks[r]
}

// Valid reports whether the role is one of the enumerated project roles
func (r ProjectRole) Valid() bool {
	_, ok := projectRanks[r]
	return ok
}

// AtLeast reports whether the role ranks at or above other
func (r ProjectRole) AtLeast(other ProjectRole) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// ParseDocumentRole validates a raw role string from an API request or a
// stored row and returns the typed role
func ParseDocumentRole(s string) (DocumentRole, bool) {
	r := DocumentRole(s)
	return r, r.Valid()
}

// ParseProjectRole validates a raw role string and returns the typed role
func ParseProjectRole(s string) (ProjectRole, bool) {
	r := ProjectRole(s)
	return r, r.Valid()
}

// DocumentRoleFromMembership maps a project membership role to the document
// role it confers when no explicit document grant exists. Project viewers can
// see documents but hold no document role; the legacy "commenter" membership
// value maps to document commenter for rows imported from older systems.
func DocumentRoleFromMembership(r ProjectRole) (DocumentRole, bool) {
	switch r {
	case ProjectOwner:
		return DocumentOwner, true
	case ProjectEditor:
		return DocumentEditor, true
	case ProjectRole("commenter"):
		return DocumentCommenter, true
	default:
		return "", false
	}
}

// DocumentRoles returns all valid document roles in ascending rank order
func DocumentRoles() []DocumentRole {
	return []DocumentRole{DocumentCommenter, DocumentEditor, DocumentOwner}
}

// ProjectRoles returns all valid project roles in ascending rank order
func ProjectRoles() []ProjectRole {
	return []ProjectRole{ProjectViewer, ProjectEditor, ProjectOwner}
}
