package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
	"github.com/claude/replog/internal/client"
	"github.com/claude/replog/internal/session"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	stateDir   string
	weightStep float64
	verbose    bool
)

// app is the per-invocation state shared by all commands.
type app struct {
	api      *client.Client
	log      *slog.Logger
	stateDir string
	store    *session.SQLiteStore
}

var cli *app

var rootCmd = &cobra.Command{
	Use:   "replog-session",
	Short: "Run and log workouts against a RepLog server",
	Long: `replog-session is the terminal client for RepLog.

It runs workout sessions against your programs. Every change to a session is
saved as a local draft, so an interrupted workout can be resumed for up to
24 hours. The finished workout is sent to the server on submit.

QUICK START:

  $ replog-session login you@example.com --remember
  $ replog-session programs create "Push Day" -e "Bench Press:3x8" -e "Dips:3x10"
  $ replog-session start push             # program name or id prefix
  $ replog-session set push 1 weight 80   # set #1: 80 weight
  $ replog-session inc push 1 reps
  $ replog-session copy push 2            # take reps/weight from last time
  $ replog-session status push --watch
  $ replog-session submit push

DRAFTS:

  Drafts live in ~/.replog/drafts.db. 'drafts' lists resumable ones,
  'discard' throws one away, 'cancel' leaves a session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		logger := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: verbose,
			Level:           level,
		})

		dir := stateDir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("finding home directory: %w", err)
			}
			dir = filepath.Join(home, ".replog")
		}

		cli = &app{
			api:      client.New(serverURL),
			log:      slog.New(logger),
			stateDir: dir,
		}
		token, err := loadToken(dir)
		if err != nil {
			return err
		}
		cli.api.SetToken(token)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cli != nil && cli.store != nil {
			return cli.store.Close()
		}
		return nil
	},
}

// manager opens the draft store on first use.
func (a *app) manager() (*session.Manager, error) {
	if a.store == nil {
		store, err := session.OpenSQLiteStore(a.stateDir)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	return session.NewManager(a.store, a.api, nil, a.log, weightStep), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("replog-session", Version)
	},
}

func init() {
	defaultServer := os.Getenv("REPLOG_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "RepLog server URL (env REPLOG_SERVER)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for the token and drafts (default ~/.replog)")
	rootCmd.PersistentFlags().Float64Var(&weightStep, "weight-step", session.DefaultWeightStep, "weight change for inc/dec")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}
