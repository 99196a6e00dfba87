package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"michi/internal/client/session"

	"github.com/spf13/cobra"
)

var (
	loginUser     string
	loginPassword string
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Long: `Sign in to the Michi backend. The token is saved to the config file
so later commands and the dashboard reuse it until it expires.`,
	RunE: runLogin,
}

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE:  runLogout,
}

var WhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health and session state",
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{LoginCmd, RegisterCmd} {
		c.Flags().StringVarP(&loginUser, "user", "u", "", "user name")
		c.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prompted when omitted)")
	}
}

// credentials fills missing flags from in, one line each
func credentials(in io.Reader, out io.Writer) (string, string, error) {
	user, password := strings.TrimSpace(loginUser), loginPassword
	reader := bufio.NewReader(in)

	if user == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		user = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Fprint(out, "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if user == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return user, password, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	user, password, err := credentials(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx := context.Background()
	client := newAPIClient(cfg)
	res, err := client.Login(ctx, user, password)
	if err != nil {
		return err
	}
	me, err := client.WithToken(res.Token).Me(ctx)
	if err != nil {
		return err
	}

	st := session.State{}.Login(res.Token, res.ExpiresAt, session.FromResponse(*me))
	if err := session.NewFileStore(cfg).Save(st); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Logged in as %s (%s)", st.UserName(), st.Role())))
	fmt.Fprintln(out, dimStyle.Render("Session valid until "+res.ExpiresAt.Local().Format(time.RFC1123)))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	user, password, err := credentials(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := newAPIClient(cfg).Register(context.Background(), user, password); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Account "+user+" created. Run 'michi login' to sign in."))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := session.NewFileStore(cfg).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "👋 Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, _, err := authedClient(cfg)
	if err != nil {
		return err
	}
	me, err := client.Me(context.Background())
	if err != nil {
		return explain(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:    %s\n", me.UserName)
	fmt.Fprintf(out, "Role:    %s\n", me.Role)
	fmt.Fprintf(out, "ID:      %s\n", me.ID)
	fmt.Fprintf(out, "Since:   %s\n", me.CreatedAt.Local().Format("2006-01-02"))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, headerStyle.Render("Michi status"))
	fmt.Fprintf(out, "Version:  %s\n", AppVersion)
	fmt.Fprintf(out, "Config:   %s\n", cfg.Path())
	fmt.Fprintf(out, "Backend:  %s\n", cfg.BackendURL)

	health, err := newAPIClient(cfg).Health(context.Background())
	if err != nil {
		fmt.Fprintf(out, "Health:   🔴 %v\n", err)
	} else {
		fmt.Fprintf(out, "Health:   🟢 %s (database: %s)\n", health.Status, health.Database)
	}

	st, err := session.NewFileStore(cfg).Load()
	switch {
	case err != nil:
		fmt.Fprintln(out, "Session:  not logged in")
	case !st.LoggedIn(time.Now()):
		fmt.Fprintf(out, "Session:  expired (%s)\n", st.UserName())
	default:
		fmt.Fprintf(out, "Session:  %s, expires %s\n", st.UserName(), st.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}
