package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gravsearch/internal/permission"
)

// PermissionOptions holds flags for the permission command.
type PermissionOptions struct {
	*RootOptions
	Owner   string
	Project string
	User    string
}

// PermissionResult is the JSON payload of the permission command.
type PermissionResult struct {
	User       string       `json:"user,omitempty"`
	Level      string       `json:"level,omitempty"`
	Granted    bool         `json:"granted"`
	Grants     []GrantEntry `json:"grants"`
	Normalized string       `json:"normalized"`
}

// GrantEntry is one parsed entry of a permission literal.
type GrantEntry struct {
	Level  string   `json:"level"`
	Groups []string `json:"groups"`
}

// NewPermissionCommand creates the permission command.
func NewPermissionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PermissionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "permission <literal>",
		Short: "Evaluate a permission literal for a requester",
		Long: `Evaluate a permission literal for a requester.

Prints the highest level the literal grants on an object owned by --owner
in --project, or "none" when the requester cannot see the object at all.

Example:
  gravsearch permission "CR knora-admin:Creator|V knora-admin:KnownUser" \
    --owner http://rdfh.ch/users/a --project http://rdfh.ch/projects/0803`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermission(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "IRI of the object's owner")
	cmd.Flags().StringVar(&opts.Project, "project", "", "IRI of the object's project")
	cmd.Flags().StringVar(&opts.User, "user", "", "requester IRI (default anonymous)")

	return cmd
}

func runPermission(ctx context.Context, opts *PermissionOptions, literal string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openConfiguredStore(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Identity(ctx, opts.User)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving requester", err)
	}

	grants, err := permission.ParseLiteral(literal)
	if err != nil {
		return NewExitError(ExitFailure, fmt.Sprintf("invalid permission literal: %v", err))
	}
	code, ok, err := permission.GrantedLevel(opts.Owner, opts.Project, literal, id)
	if err != nil {
		return NewExitError(ExitFailure, fmt.Sprintf("invalid permission literal: %v", err))
	}

	result := PermissionResult{
		User:       opts.User,
		Granted:    ok,
		Grants:     make([]GrantEntry, len(grants)),
		Normalized: permission.FormatLiteral(grants),
	}
	if ok {
		result.Level = code.String()
	}
	for i, g := range grants {
		result.Grants[i] = GrantEntry{Level: g.Code.String(), Groups: g.Groups}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(permissionText(result))
}

func permissionText(r PermissionResult) string {
	var b strings.Builder
	if r.Granted {
		b.WriteString(r.Level)
	} else {
		b.WriteString("none")
	}
	for _, g := range r.Grants {
		fmt.Fprintf(&b, "\n  %-2s %s", g.Level, strings.Join(g.Groups, ", "))
	}
	return b.String()
}
