package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gravsearch/internal/permission"
	"github.com/roach88/gravsearch/internal/store"
)

// UserAddOptions holds flags for the user add command.
type UserAddOptions struct {
	*RootOptions
	SystemAdmin bool
	Groups      []string // project=group pairs
	AdminAll    []string // project IRIs
}

// UserInfo is the JSON form of a registered user.
type UserInfo struct {
	IRI             string              `json:"iri"`
	SystemAdmin     bool                `json:"systemAdmin"`
	Groups          map[string][]string `json:"groups,omitempty"`
	ProjectAdminAll []string            `json:"projectAdminAll,omitempty"`
}

// NewUserCommand creates the user command group.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the requesters known to the metadata store",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	cmd.AddCommand(newUserListCommand(rootOpts))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <user-iri>",
		Short: "Register a user and their project groups",
		Long: `Register a user and their project groups, replacing any previous
registration of the same IRI.

Groups are given as project=group; built-in groups may be abbreviated:
  gravsearch user add http://rdfh.ch/users/a \
    --group http://rdfh.ch/projects/0803=knora-admin:ProjectMember`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SystemAdmin, "admin", false, "register as system administrator")
	cmd.Flags().StringArrayVar(&opts.Groups, "group", nil, "project=group membership (repeatable)")
	cmd.Flags().StringArrayVar(&opts.AdminAll, "admin-all", nil, "project in which the user holds every permission (repeatable)")

	return cmd
}

// parseMemberships turns project=group pairs into the store's map form.
func parseMemberships(pairs []string) (map[string][]string, error) {
	groups := make(map[string][]string)
	for _, pair := range pairs {
		project, group, ok := strings.Cut(pair, "=")
		project, group = strings.TrimSpace(project), strings.TrimSpace(group)
		if !ok || project == "" || group == "" {
			return nil, fmt.Errorf("invalid membership %q: expected project=group", pair)
		}
		groups[project] = append(groups[project], permission.ExpandGroup(group))
	}
	return groups, nil
}

func runUserAdd(ctx context.Context, opts *UserAddOptions, iri string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	groups, err := parseMemberships(opts.Groups)
	if err != nil {
		return WrapExitError(ExitCommandError, "parsing --group", err)
	}

	st, err := openConfiguredStore(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer st.Close()

	u := store.User{IRI: iri, SystemAdmin: opts.SystemAdmin, Groups: groups, ProjectAdminAll: opts.AdminAll}
	if err := st.SaveUser(ctx, u); err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "saving user", Err: err, Reported: true}
	}

	if opts.Format == "json" {
		return formatter.Success(userInfo(u))
	}
	return formatter.Success(fmt.Sprintf("Registered %s", iri))
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runUserList(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openConfiguredStore(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer st.Close()

	iris, err := st.UserIRIs(ctx)
	if err != nil {
		formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "listing users", Err: err, Reported: true}
	}

	users := make([]UserInfo, 0, len(iris))
	for _, iri := range iris {
		u, err := st.LoadUser(ctx, iri)
		if err != nil {
			formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return &ExitError{Code: ExitCommandError, Message: "listing users", Err: err, Reported: true}
		}
		users = append(users, userInfo(u))
	}

	if opts.Format == "json" {
		return formatter.Success(users)
	}
	if len(users) == 0 {
		return formatter.Success("No users registered.")
	}
	var b strings.Builder
	for i, u := range users {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(u.IRI)
		if u.SystemAdmin {
			b.WriteString(" [system admin]")
		}
		projects := make([]string, 0, len(u.Groups))
		for project := range u.Groups {
			projects = append(projects, project)
		}
		sort.Strings(projects)
		for _, project := range projects {
			fmt.Fprintf(&b, "\n  %s: %s", project, strings.Join(u.Groups[project], ", "))
		}
		for _, project := range u.ProjectAdminAll {
			fmt.Fprintf(&b, "\n  %s: all permissions", project)
		}
	}
	return formatter.Success(b.String())
}

func userInfo(u store.User) UserInfo {
	info := UserInfo{IRI: u.IRI, SystemAdmin: u.SystemAdmin, ProjectAdminAll: u.ProjectAdminAll}
	if len(u.Groups) > 0 {
		info.Groups = u.Groups
	}
	return info
}
