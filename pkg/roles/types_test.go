package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentRoleRank(t *testing.T) {
	assert.Greater(t, DocumentOwner.Rank(), DocumentEditor.Rank())
	assert.Greater(t, DocumentEditor.Rank(), DocumentCommenter.Rank())
	assert.Equal(t, 0, DocumentRole("admin").Rank())
}

func TestProjectRoleRank(t *testing.T) {
	assert.Greater(t, ProjectOwner.Rank(), ProjectEditor.Rank())
	assert.Greater(t, ProjectEditor.Rank(), ProjectViewer.Rank())
	assert.Equal(t, 0, ProjectRole("").Rank())
}

func TestParseDocumentRole(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DocumentRole
		ok    bool
	}{
		{name: "owner", input: "owner", want: DocumentOwner, ok: true},
		{name: "editor", input: "editor", want: DocumentEditor, ok: true},
		{name: "commenter", input: "commenter", want: DocumentCommenter, ok: true},
		{name: "project-only role", input: "viewer", ok: false},
		{name: "typo", input: "onwer", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDocumentRole(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseProjectRole(t *testing.T) {
	_, ok := ParseProjectRole("viewer")
	assert.True(t, ok)
	_, ok = ParseProjectRole("commenter")
	assert.False(t, ok)
}

func TestDocumentRoleFromMembership(t *testing.T) {
	tests := []struct {
		name       string
		membership ProjectRole
		want       DocumentRole
		ok         bool
	}{
		{name: "owner inherits owner", membership: ProjectOwner, want: DocumentOwner, ok: true},
		{name: "editor inherits editor", membership: ProjectEditor, want: DocumentEditor, ok: true},
		{name: "viewer holds no document role", membership: ProjectViewer, ok: false},
		{name: "legacy commenter membership", membership: ProjectRole("commenter"), want: DocumentCommenter, ok: true},
		{name: "unknown", membership: ProjectRole("guest"), ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DocumentRoleFromMembership(tt.membership)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	assert.Contains(t, DocumentOwner.Capabilities(), CapabilityManageAccess)
	assert.NotContains(t, DocumentEditor.Capabilities(), CapabilityManageAccess)
	assert.Contains(t, DocumentCommenter.Capabilities(), CapabilityComment)
	assert.Nil(t, DocumentRole("bogus").Capabilities())
}

func TestAtLeast(t *testing.T) {
	assert.True(t, DocumentOwner.AtLeast(DocumentEditor))
	assert.True(t, DocumentEditor.AtLeast(DocumentEditor))
	assert.False(t, DocumentCommenter.AtLeast(DocumentEditor))
	assert.False(t, DocumentRole("bogus").AtLeast(DocumentCommenter))
}

func TestProjectAtLeast(t *testing.T) {
	assert.True(t, ProjectOwner.AtLeast(ProjectEditor))
	assert.True(t, ProjectEditor.AtLeast(ProjectEditor))
	assert.False(t, ProjectViewer.AtLeast(ProjectEditor))
	assert.False(t, ProjectRole("guest").AtLeast(ProjectViewer))
}
