package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/vocab"
)

const (
	project  = "http://rdfh.ch/projects/0803"
	owner    = "http://rdfh.ch/users/owner"
	member   = "http://rdfh.ch/users/member"
	stranger = "http://rdfh.ch/users/stranger"
	custom   = "http://rdfh.ch/groups/0803/editors"

	standardLiteral = "CR knora-admin:Creator|M knora-admin:ProjectMember|V knora-admin:KnownUser|RV knora-admin:UnknownUser"
)

func memberIdentity() Identity {
	return Identity{
		UserIRI:       member,
		ProjectGroups: map[string][]string{project: {vocab.ProjectMember}},
	}
}

// =============================================================================
// Literal Parsing
// =============================================================================

func TestParseLiteral(t *testing.T) {
	grants, err := ParseLiteral("CR knora-admin:Creator|V knora-admin:KnownUser," + custom)
	require.NoError(t, err)
	require.Len(t, grants, 2)

	assert.Equal(t, ChangeRights, grants[0].Code)
	assert.Equal(t, []string{vocab.Creator}, grants[0].Groups)
	assert.Equal(t, View, grants[1].Code)
	assert.Equal(t, []string{vocab.KnownUser, custom}, grants[1].Groups)
}

func TestParseLiteral_RejectsUnknownAbbreviation(t *testing.T) {
	_, err := ParseLiteral("CR knora-admin:Creator|XX knora-admin:KnownUser")
	require.Error(t, err)
	assert.True(t, queryerr.IsInternal(err))
	assert.Contains(t, err.Error(), `"XX"`)
}

func TestParseLiteral_RejectsEntryWithoutGroups(t *testing.T) {
	_, err := ParseLiteral("CR knora-admin:Creator|V")
	require.Error(t, err)
	assert.True(t, queryerr.IsInternal(err))
}

func TestParseLiteral_Empty(t *testing.T) {
	grants, err := ParseLiteral("")
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestFormatLiteral_RoundTrip(t *testing.T) {
	grants, err := ParseLiteral(standardLiteral)
	require.NoError(t, err)
	assert.Equal(t, standardLiteral, FormatLiteral(grants))
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "RV", RestrictedView.String())
	assert.Equal(t, "CR", ChangeRights.String())
	assert.True(t, Modify > View)
	assert.True(t, Delete < ChangeRights)
}

// =============================================================================
// Granted Level
// =============================================================================

func TestGrantedLevel(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		owner   string
		id      Identity
		want    Code
		granted bool
	}{
		{"anonymous gets baseline", standardLiteral, owner, Anonymous(), RestrictedView, true},
		{"known user", standardLiteral, owner, Identity{UserIRI: stranger}, View, true},
		{"project member", standardLiteral, owner, memberIdentity(), Modify, true},
		{"creator", standardLiteral, owner, Identity{UserIRI: owner}, ChangeRights, true},
		{"system admin", "RV knora-admin:UnknownUser", owner, Identity{UserIRI: stranger, SystemAdmin: true}, MaxCode, true},
		{"project admin all", "V knora-admin:KnownUser", owner, Identity{UserIRI: stranger, ProjectAdminAll: map[string]bool{project: true}}, MaxCode, true},
		{"admin all in other project", "V knora-admin:KnownUser", owner, Identity{UserIRI: stranger, ProjectAdminAll: map[string]bool{"http://rdfh.ch/projects/other": true}}, View, true},
		{"custom group", "D " + custom + "|V knora-admin:KnownUser", owner, Identity{UserIRI: member, ProjectGroups: map[string][]string{project: {custom}}}, Delete, true},
		{"unknown user fallback for known user", "M knora-admin:ProjectMember|RV knora-admin:UnknownUser", owner, Identity{UserIRI: stranger}, RestrictedView, true},
		{"nothing for anonymous", "CR knora-admin:Creator|V knora-admin:KnownUser", owner, Anonymous(), 0, false},
		{"nothing for stranger", "CR knora-admin:Creator|M knora-admin:ProjectMember", owner, Identity{UserIRI: stranger}, 0, false},
		{"empty literal", "", owner, Identity{UserIRI: stranger}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok, err := GrantedLevel(tt.owner, project, tt.literal, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.granted, ok)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestGrantedLevel_AnonymousIsNeverCreator(t *testing.T) {
	code, ok, err := GrantedLevel("", project, "CR knora-admin:Creator", Anonymous())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Code(0), code)
}

func TestGrantedLevel_UnknownAbbreviationEvenForAdmin(t *testing.T) {
	_, _, err := GrantedLevel(owner, project, "ZZ knora-admin:KnownUser", Identity{UserIRI: stranger, SystemAdmin: true})
	require.Error(t, err)
	assert.True(t, queryerr.IsInternal(err))
}

func TestGrantedLevel_Pure(t *testing.T) {
	id := memberIdentity()
	first, ok1, err1 := GrantedLevel(owner, project, standardLiteral, id)
	for i := 0; i < 20; i++ {
		again, ok2, err2 := GrantedLevel(owner, project, standardLiteral, id)
		assert.Equal(t, first, again)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, err1, err2)
	}
}

// =============================================================================
// Monotonicity
// =============================================================================

func TestGrantedLevel_SystemAdminAlwaysMax(t *testing.T) {
	literals := []string{
		"",
		"RV knora-admin:UnknownUser",
		standardLiteral,
		"CR knora-admin:Creator",
		"V " + custom,
	}
	admin := Identity{UserIRI: stranger, SystemAdmin: true}
	for _, lit := range literals {
		code, ok, err := GrantedLevel(owner, project, lit, admin)
		require.NoError(t, err)
		assert.True(t, ok, lit)
		assert.Equal(t, MaxCode, code, lit)
	}
}

// Adding groups never lowers the level as long as UnknownUser is granted no
// more than any other group of the literal. See
// TestGrantedLevel_FallbackCanOutrankMatch for the exception.
func TestGrantedLevel_MoreGroupsNeverLess(t *testing.T) {
	literals := []string{
		standardLiteral,
		"M " + custom + "|RV knora-admin:UnknownUser",
		"D knora-admin:ProjectMember",
		"V knora-admin:KnownUser|CR " + custom,
		"RV knora-admin:UnknownUser",
	}

	// Each identity's groups are a superset of the previous one's.
	chain := []Identity{
		Anonymous(),
		{UserIRI: member},
		{UserIRI: member, ProjectGroups: map[string][]string{project: {vocab.ProjectMember}}},
		{UserIRI: member, ProjectGroups: map[string][]string{project: {vocab.ProjectMember, custom}}},
		{UserIRI: member, ProjectGroups: map[string][]string{project: {vocab.ProjectMember, custom}}, SystemAdmin: true},
	}

	for _, lit := range literals {
		prev := Code(0)
		for i, id := range chain {
			code, ok, err := GrantedLevel(owner, project, lit, id)
			require.NoError(t, err)
			if !ok {
				code = 0
			}
			assert.GreaterOrEqual(t, int(code), int(prev), "literal %q identity %d", lit, i)
			prev = code
		}
	}
}

func TestGrantedLevel_FallbackCanOutrankMatch(t *testing.T) {
	// UnknownUser counts only when no group of the requester matches, so a
	// group granted less than UnknownUser lowers the level of its members.
	lit := "RV " + custom + "|V knora-admin:UnknownUser"

	tests := []struct {
		name string
		id   Identity
		want Code
	}{
		{name: "anonymous", id: Anonymous(), want: View},
		{name: "known user", id: Identity{UserIRI: member}, want: View},
		{
			name: "custom group member",
			id:   Identity{UserIRI: member, ProjectGroups: map[string][]string{project: {custom}}},
			want: RestrictedView,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok, err := GrantedLevel(owner, project, lit, tt.id)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestIdentity_Groups(t *testing.T) {
	groups := Anonymous().Groups(owner, project)
	assert.Equal(t, map[string]bool{vocab.UnknownUser: true}, groups)

	groups = Identity{UserIRI: owner, SystemAdmin: true}.Groups(owner, project)
	assert.True(t, groups[vocab.KnownUser])
	assert.True(t, groups[vocab.Creator])
	assert.True(t, groups[vocab.SystemAdmin])
	assert.False(t, groups[vocab.UnknownUser])
}
