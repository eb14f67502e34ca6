package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-yamdb"
)

var (
	// user create flags
	newUsername  string
	newEmail     string
	newRole      string
	newSuperuser bool
)

// userCmd groups user management commands
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

// userCreateCmd creates a user directly in the store
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user without going through sign up. Use it to bootstrap the
first superuser, who can then promote other users over the API.

Examples:
  yamdb user create --username root --email root@example.com --superuser
  yamdb user create --username mod --email mod@example.com --role moderator`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserCreate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	userCreateCmd.Flags().StringVarP(&newUsername, "username", "u", "", "Username (required)")
	userCreateCmd.Flags().StringVarP(&newEmail, "email", "e", "", "Email (required)")
	userCreateCmd.Flags().StringVar(&newRole, "role", string(yamdb.RoleUser), "Role: user, moderator or admin")
	userCreateCmd.Flags().BoolVar(&newSuperuser, "superuser", false, "Grant the superuser flag")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
}

func runUserCreate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	role, ok := yamdb.ParseRole(newRole)
	if !ok {
		return fmt.Errorf("unknown role %q", newRole)
	}

	user := &yamdb.User{
		ID:          uuid.New(),
		Username:    newUsername,
		Email:       newEmail,
		Role:        role,
		IsSuperuser: newSuperuser,
		Status:      yamdb.UserStatusPending,
	}

	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %v", yamdb.ErrorFields(err))
	}

	if _, err := rt.repo.Users().Create(ctx, user); err != nil {
		return err
	}

	rt.log.Info("user created", "username", user.Username, "role", user.Role, "superuser", user.IsSuperuser)
	return nil
}
