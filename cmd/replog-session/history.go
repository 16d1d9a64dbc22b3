package main

import (
	"fmt"
	"time"

	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyProgram string
	historyLimit   int
	historyOffset  int
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h"},
	Short:   "List logged workouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := models.WorkoutFilter{Limit: historyLimit, Offset: historyOffset}
		if historyProgram != "" {
			p, err := resolveProgram(cmd.Context(), historyProgram)
			if err != nil {
				return err
			}
			f.ProgramID = &p.ID
		}

		workouts, err := cli.api.ListWorkouts(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("listing workouts: %w", err)
		}
		if len(workouts) == 0 {
			fmt.Println("No workouts found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, w := range workouts {
			duration := ""
			if w.DurationSec != nil {
				duration = session.FormatDuration(time.Duration(*w.DurationSec) * time.Second)
			}
			done := 0
			for _, s := range w.Sets {
				if s.Completed {
					done++
				}
			}
			fmt.Printf("%s %s %s %d/%d sets %s\n",
				faint.Sprint(w.ID.String()[:8]),
				faint.Sprint(w.Date.Local().Format("2006-01-02 15:04")),
				padRight(w.ProgramName, 20),
				done, len(w.Sets),
				duration)
			if w.Notes != nil {
				fmt.Printf("    %s\n", faint.Sprint(*w.Notes))
			}
		}
		return nil
	},
}

var exerciseCmd = &cobra.Command{
	Use:   "exercise <name>",
	Short: "Show every logged set of an exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, err := cli.api.ExerciseHistory(cmd.Context(), args[0], historyLimit)
		if err != nil {
			return fmt.Errorf("querying exercise history: %w", err)
		}
		if len(sets) == 0 {
			fmt.Printf("No sets logged for %q.\n", args[0])
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range sets {
			fmt.Printf("%s %s #%d %3d x %g %s\n",
				faint.Sprint(s.Date.Local().Format("2006-01-02")),
				padRight(s.ExerciseName, 20),
				s.SetNumber, s.Reps, s.Weight,
				faint.Sprint(s.ProgramName))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyProgram, "program", "p", "", "only workouts of this program")
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 10, "how many entries to show")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "skip this many workouts")

	historyCmd.AddCommand(exerciseCmd)
	rootCmd.AddCommand(historyCmd)
}
