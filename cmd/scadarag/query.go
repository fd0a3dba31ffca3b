package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scadarag/internal/logging"
	"scadarag/internal/worker"
)

var queryCmd = &cobra.Command{
	Use:   "query question file [file...]",
	Short: "Answer one question from the given documents",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntP("k", "k", 0, "number of passages (default from config)")
	queryCmd.Flags().Bool("json", false, "print the result message as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	k, _ := cmd.Flags().GetInt("k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := setup()
	if err != nil {
		return err
	}
	sess, err := newSession(cfg, logging.Logger())
	if err != nil {
		return err
	}
	defer sess.Dispose()

	docs, err := loadDocuments(args[1:])
	if err != nil {
		return err
	}
	if err := sess.Ingest(ctx, docs); err != nil {
		return err
	}
	ans, err := sess.Query(ctx, args[0], k)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(worker.NewResult(ans))
	}

	fmt.Println(ans.Text)
	for i, h := range ans.Hits {
		where := h.Chunk.Title
		if h.Chunk.Page > 0 {
			where += fmt.Sprintf(" p.%d", h.Chunk.Page)
		}
		fmt.Printf("\n[%d] %s (%.3f)\n%s\n", i+1, where, h.Score, excerpt(h.Chunk.Text, 60))
	}
	return nil
}

// excerpt returns the first n words of text.
func excerpt(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " ..."
}
