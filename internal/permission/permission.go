// Package permission evaluates object access permissions.
//
// Every resource and value carries a permission literal such as
//
//	CR knora-admin:Creator|M knora-admin:ProjectMember|V knora-admin:KnownUser|RV knora-admin:UnknownUser
//
// GrantedLevel computes the highest level the literal grants a requester.
// Evaluation is pure: no I/O, no shared state.
package permission

import (
	"strings"

	"github.com/roach88/gravsearch/internal/queryerr"
	"github.com/roach88/gravsearch/internal/vocab"
)

// Code is a permission level. Codes have gaps on purpose and compare as
// integers: a higher code includes every lower one.
type Code int

const (
	RestrictedView Code = 2
	View           Code = 3
	Modify         Code = 6
	Delete         Code = 7
	ChangeRights   Code = 8

	// MaxCode is the highest defined level.
	MaxCode = ChangeRights
)

// String returns the abbreviation used in permission literals.
func (c Code) String() string {
	switch c {
	case RestrictedView:
		return "RV"
	case View:
		return "V"
	case Modify:
		return "M"
	case Delete:
		return "D"
	case ChangeRights:
		return "CR"
	default:
		return "?"
	}
}

// parseAbbreviation maps the five literal abbreviations to codes.
func parseAbbreviation(abbr string) (Code, error) {
	switch abbr {
	case "RV":
		return RestrictedView, nil
	case "V":
		return View, nil
	case "M":
		return Modify, nil
	case "D":
		return Delete, nil
	case "CR":
		return ChangeRights, nil
	default:
		return 0, queryerr.Internal("unknown permission abbreviation %q", abbr)
	}
}

// Grant is one entry of a permission literal.
type Grant struct {
	Code   Code
	Groups []string
}

const (
	entrySeparator = "|"
	groupSeparator = ","
	adminPrefix    = "knora-admin:"
)

// ParseLiteral parses a permission literal into grants, in literal order.
// An unknown abbreviation or an entry without groups is an
// INTERNAL_INCONSISTENCY: the store never contains either.
func ParseLiteral(literal string) ([]Grant, error) {
	var grants []Grant
	for _, entry := range strings.Split(literal, entrySeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		abbr, groupList, found := strings.Cut(entry, " ")
		code, err := parseAbbreviation(abbr)
		if err != nil {
			return nil, err
		}
		if !found || strings.TrimSpace(groupList) == "" {
			return nil, queryerr.Internal("permission entry %q names no groups", entry)
		}

		var groups []string
		for _, g := range strings.Split(groupList, groupSeparator) {
			g = strings.TrimSpace(g)
			if g == "" {
				continue
			}
			groups = append(groups, ExpandGroup(g))
		}
		grants = append(grants, Grant{Code: code, Groups: groups})
	}
	return grants, nil
}

// FormatLiteral renders grants back to literal form with abbreviated
// built-in groups.
func FormatLiteral(grants []Grant) string {
	entries := make([]string, len(grants))
	for i, g := range grants {
		groups := make([]string, len(g.Groups))
		for j, group := range g.Groups {
			groups[j] = abbreviateGroup(group)
		}
		entries[i] = g.Code.String() + " " + strings.Join(groups, groupSeparator)
	}
	return strings.Join(entries, entrySeparator)
}

// ExpandGroup turns an abbreviated built-in group such as
// "knora-admin:ProjectMember" into its full IRI. Other names are returned
// unchanged.
func ExpandGroup(g string) string {
	if strings.HasPrefix(g, adminPrefix) {
		return vocab.KnoraAdminNamespace + strings.TrimPrefix(g, adminPrefix)
	}
	return g
}

func abbreviateGroup(g string) string {
	if strings.HasPrefix(g, vocab.KnoraAdminNamespace) {
		return adminPrefix + strings.TrimPrefix(g, vocab.KnoraAdminNamespace)
	}
	return g
}

// GrantedLevel returns the highest permission the literal grants to the
// requester on an object owned by owner in project. ok is false when the
// requester has no access at all.
//
// System administrators and holders of the project's admin-all permission
// always get MaxCode. Otherwise the requester's groups are matched against
// the grants; if nothing matches, the UnknownUser baseline applies.
func GrantedLevel(owner, project, literal string, id Identity) (Code, bool, error) {
	grants, err := ParseLiteral(literal)
	if err != nil {
		return 0, false, err
	}

	if id.SystemAdmin || id.IsProjectAdminAll(project) {
		return MaxCode, true, nil
	}

	if code, ok := highest(grants, id.Groups(owner, project)); ok {
		return code, true, nil
	}
	if code, ok := highest(grants, anonymousGroups); ok {
		return code, true, nil
	}
	return 0, false, nil
}

var anonymousGroups = map[string]bool{vocab.UnknownUser: true}

func highest(grants []Grant, groups map[string]bool) (Code, bool) {
	var best Code
	found := false
	for _, g := range grants {
		for _, group := range g.Groups {
			if groups[group] && (!found || g.Code > best) {
				best = g.Code
				found = true
			}
		}
	}
	return best, found
}
