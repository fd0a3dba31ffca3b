package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"scadarag/internal/logging"
	"scadarag/internal/tui"
)

var searchCmd = &cobra.Command{
	Use:   "search file [file...]",
	Short: "Load documents and search them interactively",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		sess, err := newSession(cfg, logging.Logger())
		if err != nil {
			return err
		}
		defer sess.Dispose()

		docs, err := loadDocuments(args)
		if err != nil {
			return err
		}
		if err := sess.Ingest(context.Background(), docs); err != nil {
			return err
		}
		st := sess.Stats()
		header := fmt.Sprintf("%d documents, %d passages, %d terms", st.Documents, st.Chunks, st.Terms)

		_, err = tea.NewProgram(tui.New(sess, cfg.Retrieval.TopK, header), tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
