package main

import (
	"fmt"

	"github.com/claude/replog/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve your RepLog data over MCP on stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Data is read from the RepLog server with the stored login token, so log in
first. Add to an MCP client config:

  {
    "mcpServers": {
      "replog": { "command": "replog-session", "args": ["mcp"] }
    }
  }

TOOLS:

  list_programs         Programs with their exercises
  get_program           One program by id
  get_workouts          Logged workouts with sets
  get_exercise_history  Every logged set of an exercise

RESOURCES:

  replog://recent_workouts  The 20 most recent workouts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := cli.api.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("checking login: %w", err)
		}
		s := mcp.New(mcp.NewHTTPClient(cli.api), Version, cli.log)
		cli.log.Info("serving MCP on stdio", "user", me.Email)
		return mcp.ServeStdio(s, me.ID)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
