package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/gravsearch/internal/permission"
)

// ErrUnknownUser is returned when a user IRI has not been registered.
var ErrUnknownUser = errors.New("unknown user")

// User is a registered requester.
type User struct {
	IRI         string
	SystemAdmin bool

	// Groups maps project IRI to the user's groups in that project.
	Groups map[string][]string

	// ProjectAdminAll lists projects where the user holds the permission
	// that grants everything.
	ProjectAdminAll []string
}

// SaveUser stores u, replacing any previous registration of the same IRI.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	if u.IRI == "" {
		return fmt.Errorf("save user: missing user IRI")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE iri = ?`, u.IRI); err != nil {
		return fmt.Errorf("delete user %s: %w", u.IRI, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (iri, system_admin) VALUES (?, ?)`,
		u.IRI, u.SystemAdmin,
	); err != nil {
		return fmt.Errorf("insert user %s: %w", u.IRI, err)
	}

	for project, groups := range u.Groups {
		for _, g := range groups {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO memberships (user_iri, project, group_iri) VALUES (?, ?, ?)`,
				u.IRI, project, g,
			); err != nil {
				return fmt.Errorf("insert membership of %s in %s: %w", u.IRI, project, err)
			}
		}
	}
	for _, project := range u.ProjectAdminAll {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO project_admin_all (user_iri, project) VALUES (?, ?)`,
			u.IRI, project,
		); err != nil {
			return fmt.Errorf("insert admin-all of %s in %s: %w", u.IRI, project, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user %s: %w", u.IRI, err)
	}
	return nil
}

// LoadUser returns the registration of iri, or ErrUnknownUser.
func (s *Store) LoadUser(ctx context.Context, iri string) (User, error) {
	u := User{IRI: iri, Groups: make(map[string][]string)}

	err := s.db.QueryRowContext(ctx, `SELECT system_admin FROM users WHERE iri = ?`, iri).Scan(&u.SystemAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: %s", ErrUnknownUser, iri)
	}
	if err != nil {
		return User{}, fmt.Errorf("query user %s: %w", iri, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT project, group_iri FROM memberships
		WHERE user_iri = ?
		ORDER BY project COLLATE BINARY ASC, group_iri COLLATE BINARY ASC
	`, iri)
	if err != nil {
		return User{}, fmt.Errorf("query memberships of %s: %w", iri, err)
	}
	for rows.Next() {
		var project, group string
		if err := rows.Scan(&project, &group); err != nil {
			rows.Close()
			return User{}, fmt.Errorf("scan membership: %w", err)
		}
		u.Groups[project] = append(u.Groups[project], group)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return User{}, fmt.Errorf("iterate memberships: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT project FROM project_admin_all
		WHERE user_iri = ?
		ORDER BY project COLLATE BINARY ASC
	`, iri)
	if err != nil {
		return User{}, fmt.Errorf("query admin-all of %s: %w", iri, err)
	}
	defer rows.Close()
	for rows.Next() {
		var project string
		if err := rows.Scan(&project); err != nil {
			return User{}, fmt.Errorf("scan admin-all: %w", err)
		}
		u.ProjectAdminAll = append(u.ProjectAdminAll, project)
	}
	if err := rows.Err(); err != nil {
		return User{}, fmt.Errorf("iterate admin-all: %w", err)
	}
	return u, nil
}

// UserIRIs returns every registered user IRI in sorted order.
func (s *Store) UserIRIs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT iri FROM users`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	iris := []string{}
	for rows.Next() {
		var iri string
		if err := rows.Scan(&iri); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		iris = append(iris, iri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	sort.Strings(iris)
	return iris, nil
}

// Identity implements permission.Provider. An empty IRI is the anonymous
// user; an unregistered IRI is an error wrapping ErrUnknownUser.
func (s *Store) Identity(ctx context.Context, userIRI string) (permission.Identity, error) {
	if userIRI == "" {
		return permission.Anonymous(), nil
	}

	u, err := s.LoadUser(ctx, userIRI)
	if err != nil {
		return permission.Identity{}, err
	}

	id := permission.Identity{
		UserIRI:       u.IRI,
		SystemAdmin:   u.SystemAdmin,
		ProjectGroups: u.Groups,
	}
	if len(u.ProjectAdminAll) > 0 {
		id.ProjectAdminAll = make(map[string]bool, len(u.ProjectAdminAll))
		for _, p := range u.ProjectAdminAll {
			id.ProjectAdminAll[p] = true
		}
	}
	return id, nil
}

var _ permission.Provider = (*Store)(nil)
