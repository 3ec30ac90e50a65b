package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"accounts/api/internal/models"
)

type Command string

const (
	CommandMigrate    Command = "migrate"
	CommandGrantAdmin Command = "grant-admin"
	CommandListAdmins Command = "list-admins"
)

var errUsage = errors.New("usage: accountsctl migrate | grant-admin <email> | list-admins")

// ParseCommand splits the arguments into a command and its operands.
func ParseCommand(args []string) (Command, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	switch cmd := Command(args[0]); cmd {
	case CommandMigrate, CommandListAdmins:
		return cmd, nil, nil
	case CommandGrantAdmin:
		if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
			return "", nil, errUsage
		}
		return cmd, []string{strings.TrimSpace(args[1])}, nil
	default:
		return "", nil, errUsage
	}
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

type roleAdmin interface {
	AssignRole(ctx context.Context, userID string, role string) error
	ListAdmins(ctx context.Context) ([]string, error)
}

func grantAdmin(ctx context.Context, users userFinder, roles roleAdmin, email string, out io.Writer) error {
	user, err := users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find %s: %w", email, err)
	}
	if err := roles.AssignRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("assign admin to %s: %w", user.ID, err)
	}
	fmt.Fprintf(out, "granted %s to %s (%s)\n", models.RoleAdmin, user.Email, user.ID)
	return nil
}

func listAdmins(ctx context.Context, roles roleAdmin, out io.Writer) error {
	ids, err := roles.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
