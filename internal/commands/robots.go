package commands

import (
	"context"
	"fmt"
	"io"

	"michi/internal/client/api"
	"michi/internal/models"

	"github.com/spf13/cobra"
)

var RobotsCmd = &cobra.Command{
	Use:   "robots",
	Short: "Manage the robots you own",
}

var robotsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your robots",
	Args:  cobra.NoArgs,
	RunE:  runRobotsMine,
}

var robotsClaimCmd = &cobra.Command{
	Use:   "claim <robot-id>",
	Short: "Add yourself as an owner of a robot",
	Args:  cobra.ExactArgs(1),
	RunE:  runRobotsClaim,
}

var robotsRenameCmd = &cobra.Command{
	Use:   "rename <robot-id> <new-name>",
	Short: "Rename a robot you own",
	Args:  cobra.ExactArgs(2),
	RunE:  runRobotsRename,
}

var robotsReleaseCmd = &cobra.Command{
	Use:   "release <robot-id>",
	Short: "Give up ownership of a robot",
	Args:  cobra.ExactArgs(1),
	RunE:  runRobotsRelease,
}

func init() {
	RobotsCmd.AddCommand(robotsMineCmd)
	RobotsCmd.AddCommand(robotsClaimCmd)
	RobotsCmd.AddCommand(robotsRenameCmd)
	RobotsCmd.AddCommand(robotsReleaseCmd)
}

func printRobots(out io.Writer, robots []models.Robot) {
	if len(robots) == 0 {
		fmt.Fprintln(out, "🤖 No robots")
		return
	}
	fmt.Fprintf(out, "%-14s %-24s %-7s %s\n", "ROBOT ID", "NAME", "OWNERS", "ID")
	for _, r := range robots {
		fmt.Fprintf(out, "%-14s %-24s %-7d %s\n", r.RobotID, r.RobotName, len(r.OwnerUserIDs), r.ID.Hex())
	}
}

// findRobot matches a robot by its robotId or database ID
func findRobot(robots []models.Robot, ref string) (models.Robot, error) {
	for _, r := range robots {
		if r.RobotID == ref || r.ID.Hex() == ref {
			return r, nil
		}
	}
	return models.Robot{}, fmt.Errorf("robot %q not found", ref)
}

func ownedRobot(ctx context.Context, client *api.Client, ref string) (models.Robot, error) {
	robots, err := client.MyRobots(ctx)
	if err != nil {
		return models.Robot{}, explain(err)
	}
	return findRobot(robots, ref)
}

func runRobotsMine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _, err := authedClient(cfg)
	if err != nil {
		return err
	}
	robots, err := client.MyRobots(context.Background())
	if err != nil {
		return explain(err)
	}
	printRobots(cmd.OutOrStdout(), robots)
	return nil
}

func runRobotsClaim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _, err := authedClient(cfg)
	if err != nil {
		return err
	}
	r, err := client.ClaimRobot(context.Background(), args[0])
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✅ Claimed %s (%s)", r.RobotName, r.RobotID)))
	return nil
}

func runRobotsRename(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _, err := authedClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	r, err := ownedRobot(ctx, client, args[0])
	if err != nil {
		return err
	}
	updated, err := client.RenameRobot(ctx, r.ID.Hex(), args[1])
	if err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Renamed to "+updated.RobotName))
	return nil
}

func runRobotsRelease(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _, err := authedClient(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	r, err := ownedRobot(ctx, client, args[0])
	if err != nil {
		return err
	}
	if err := client.ReleaseRobot(ctx, r.ID.Hex()); err != nil {
		return explain(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Released "+r.RobotName))
	return nil
}
