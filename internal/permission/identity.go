package permission

import (
	"context"

	"github.com/roach88/gravsearch/internal/vocab"
)

// Identity describes the requester. The zero value is the anonymous user.
type Identity struct {
	// UserIRI is empty for anonymous requests.
	UserIRI string

	// ProjectGroups maps project IRI to the groups the user belongs to in
	// that project, including the built-in ProjectMember and ProjectAdmin.
	ProjectGroups map[string][]string

	// SystemAdmin marks global administrators.
	SystemAdmin bool

	// ProjectAdminAll lists projects in which the user holds the
	// administrative permission that grants everything.
	ProjectAdminAll map[string]bool
}

// Anonymous returns the identity of an unauthenticated requester.
func Anonymous() Identity {
	return Identity{}
}

// IsAnonymous reports whether the requester is unauthenticated.
func (id Identity) IsAnonymous() bool {
	return id.UserIRI == ""
}

// IsProjectAdminAll reports whether the requester holds the admin-all
// permission in project.
func (id Identity) IsProjectAdminAll(project string) bool {
	return !id.IsAnonymous() && id.ProjectAdminAll[project]
}

// Groups returns the requester's groups for an object owned by owner in
// project.
func (id Identity) Groups(owner, project string) map[string]bool {
	if id.IsAnonymous() {
		return map[string]bool{vocab.UnknownUser: true}
	}

	groups := map[string]bool{vocab.KnownUser: true}
	for _, g := range id.ProjectGroups[project] {
		groups[g] = true
	}
	if owner != "" && id.UserIRI == owner {
		groups[vocab.Creator] = true
	}
	if id.SystemAdmin {
		groups[vocab.SystemAdmin] = true
	}
	return groups
}

// Provider resolves requester identities.
type Provider interface {
	Identity(ctx context.Context, userIRI string) (Identity, error)
}
