package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"michi/internal/knowledge"

	"github.com/spf13/cobra"
)

var KnowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage the documents a robot answers from",
}

var knowledgeListCmd = &cobra.Command{
	Use:   "list <robot-id>",
	Short: "List knowledge documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeList,
}

var knowledgeUploadCmd = &cobra.Command{
	Use:   "upload <robot-id> <file.pdf>",
	Short: "Upload a PDF",
	Args:  cobra.ExactArgs(2),
	RunE:  runKnowledgeUpload,
}

var knowledgeDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnowledgeDelete,
}

func init() {
	KnowledgeCmd.AddCommand(knowledgeListCmd)
	KnowledgeCmd.AddCommand(knowledgeUploadCmd)
	KnowledgeCmd.AddCommand(knowledgeDeleteCmd)
}

// knowledgeClient returns the client and the signed-in user name the service keys documents by
func knowledgeClient() (*knowledge.Client, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	_, st, err := authedClient(cfg)
	if err != nil {
		return nil, "", err
	}
	return knowledge.NewClient(cfg.KnowledgeURL, cfg.HTTPTimeout, newLogger(cfg, false)), st.UserName(), nil
}

func runKnowledgeList(cmd *cobra.Command, args []string) error {
	client, userName, err := knowledgeClient()
	if err != nil {
		return err
	}
	docs, err := client.List(context.Background(), userName, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(docs) == 0 {
		fmt.Fprintln(out, "📚 No documents")
		return nil
	}
	fmt.Fprintf(out, "%-26s %-32s %-7s %s\n", "ID", "FILE", "CHUNKS", "UPLOADED")
	for _, d := range docs {
		uploaded := d.UploadedAt
		if t := d.UploadedTime(); !t.IsZero() {
			uploaded = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-26s %-32s %-7d %s\n", d.ID, d.Filename, d.ChunkCount, uploaded)
	}
	return nil
}

func runKnowledgeUpload(cmd *cobra.Command, args []string) error {
	client, userName, err := knowledgeClient()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}

	info, err := client.Upload(context.Background(), knowledge.Upload{
		UserID:   userName,
		RobotID:  args[0],
		Filename: filepath.Base(args[1]),
		Data:     data,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Uploaded %s (%d pages, %d words)", filepath.Base(args[1]), info.PageCount, info.WordCount)))
	if info.Preview != "" {
		fmt.Fprintln(out, dimStyle.Render(info.Preview))
	}
	return nil
}

func runKnowledgeDelete(cmd *cobra.Command, args []string) error {
	client, _, err := knowledgeClient()
	if err != nil {
		return err
	}
	if err := client.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✅ Deleted "+args[0]))
	return nil
}
