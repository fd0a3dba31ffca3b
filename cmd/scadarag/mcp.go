package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scadarag/internal/logging"
	mcpserver "scadarag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [file...]",
	Short: "Serve document search to MCP clients on stdio",
	Long: `Loads the given documents and starts a Model Context Protocol server on
stdio exposing the search_documents and list_documents tools.`,
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

		if len(args) > 0 {
			docs, err := loadDocuments(args)
			if err != nil {
				return err
			}
			if err := sess.Ingest(context.Background(), docs); err != nil {
				return err
			}
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "scadarag MCP server started on stdio (documents=%d)\n", sess.Stats().Documents)
		return mcpserver.NewServer(sess).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
