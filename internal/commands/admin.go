package commands

import (
	"context"
	"fmt"
	"strings"

	"michi/internal/client/api"
	"michi/internal/models"

	"github.com/spf13/cobra"
)

var AdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer users and robots (admin only)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var adminRobotsCmd = &cobra.Command{
	Use:   "robots",
	Short: "Manage the robot registry",
}

var (
	updateName     string
	updatePassword string
	updateOwners   string
)

func init() {
	usersList := &cobra.Command{Use: "list", Short: "List all users", Args: cobra.NoArgs, RunE: runAdminUsersList}
	usersCreate := &cobra.Command{Use: "create <user-name> <password>", Short: "Create a user", Args: cobra.ExactArgs(2), RunE: runAdminUsersCreate}
	usersUpdate := &cobra.Command{Use: "update <user-id>", Short: "Rename a user or reset the password", Args: cobra.ExactArgs(1), RunE: runAdminUsersUpdate}
	usersDelete := &cobra.Command{Use: "delete <user-id>", Short: "Delete a user", Args: cobra.ExactArgs(1), RunE: runAdminUsersDelete}
	usersUpdate.Flags().StringVar(&updateName, "name", "", "new user name")
	usersUpdate.Flags().StringVar(&updatePassword, "password", "", "new password")
	adminUsersCmd.AddCommand(usersList, usersCreate, usersUpdate, usersDelete)

	robotsList := &cobra.Command{Use: "list", Short: "List all robots", Args: cobra.NoArgs, RunE: runAdminRobotsList}
	robotsCreate := &cobra.Command{Use: "create <robot-id> <name>", Short: "Register a robot", Args: cobra.ExactArgs(2), RunE: runAdminRobotsCreate}
	robotsUpdate := &cobra.Command{Use: "update <id>", Short: "Rename a robot or replace its owners", Args: cobra.ExactArgs(1), RunE: runAdminRobotsUpdate}
	robotsDelete := &cobra.Command{Use: "delete <id>", Short: "Delete a robot", Args: cobra.ExactArgs(1), RunE: runAdminRobotsDelete}
	robotsUpdate.Flags().StringVar(&updateName, "name", "", "new robot name")
	robotsUpdate.Flags().StringVar(&updateOwners, "owners", "", "comma-separated owner user IDs; '-' clears all owners")
	adminRobotsCmd.AddCommand(robotsList, robotsCreate, robotsUpdate, robotsDelete)

	AdminCmd.AddCommand(adminUsersCmd)
	AdminCmd.AddCommand(adminRobotsCmd)
}

// adminClient is authedClient restricted to the admin role
func adminClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	client, st, err := authedClient(cfg)
	if err != nil {
		return nil, err
	}
	if st.User != nil && st.User.Role != "" && st.Role() != models.RoleAdmin {
		return nil, fmt.Errorf("admin access required")
	}
	return client, nil
}

func runAdminUsersList(cmd *cobra.Command, args []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	users, err := client.ListUsers(context.Background())
	if err != nil {
		return explain(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-24s %-20s %-6s %s\n", "ID", "USER", "ROLE", "CREATED")
	for _, u := range users {
		fmt.Fprintf(out, "%-24s %-20s %-6s %s\n", u.ID, u.UserName, u.Role, u.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}

func runAdminUsersCreate(cmd *cobra.Command, args []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	u, err := client.CreateUser(context.Background(), args[0], args[1])
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✅ Created user %s (%s)", u.UserName, u.ID)))
	return nil
}

func runAdminUsersUpdate(cmd *cobra.Command, args []string) error {
	var update api.UserUpdate
	if cmd.Flags().Changed("name") {
		update.UserName = &updateName
	}
	if cmd.Flags().Changed("password") {
		update.Password = &updatePassword
	}
	if update.UserName == nil && update.Password == nil {
		return fmt.Errorf("nothing to update, pass --name and/or --password")
	}

	client, err := adminClient()
	if err != nil {
		return err
	}
	u, err := client.UpdateUser(context.Background(), args[0], update)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Updated user "+u.UserName))
	return nil
}

func runAdminUsersDelete(cmd *cobra.Command, args []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	if err := client.DeleteUser(context.Background(), args[0]); err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Deleted user "+args[0]))
	return nil
}

func runAdminRobotsList(cmd *cobra.Command, args []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	robots, err := client.ListRobots(context.Background())
	if err != nil {
		return explain(err)
	}
	printRobots(cmd.OutOrStdout(), robots)
	return nil
}

func runAdminRobotsCreate(cmd *cobra.Command, args []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	r, err := client.CreateRobot(context.Background(), args[0], args[1])
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✅ Registered %s (%s)", r.RobotID, r.ID.Hex())))
	return nil
}

// parseOwners reads the --owners flag; "-" means no owners
func parseOwners(s string) []string {
	owners := []string{}
	if strings.TrimSpace(s) == "-" {
		return owners
	}
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			owners = append(owners, id)
		}
	}
	return owners
}

func runAdminRobotsUpdate(cmd *cobra.Command, args []string) error {
	var update api.RobotUpdate
	if cmd.Flags().Changed("name") {
		update.RobotName = &updateName
	}
	if cmd.Flags().Changed("owners") {
		owners := parseOwners(updateOwners)
		update.OwnerUserIDs = &owners
	}
	if update.RobotName == nil && update.OwnerUserIDs == nil {
		return fmt.Errorf("nothing to update, pass --name and/or --owners")
	}

	client, err := adminClient()
	if err != nil {
		return err
	}
	r, err := client.UpdateRobot(context.Background(), args[0], update)
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✅ Updated %s: %s, %d owners", r.RobotID, r.RobotName, len(r.OwnerUserIDs))))
	return nil
}

func runAdminRobotsDelete(cmd *cobra.Command, args []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	if err := client.DeleteRobot(context.Background(), args[0]); err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Deleted robot "+args[0]))
	return nil
}
