package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/claude/replog/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	watch       bool
	discardOnly bool
	confirmZero bool
)

// openSession resolves the program and starts or resumes its session.
func openSession(ctx context.Context, ref string) (*session.Session, error) {
	p, err := resolveProgram(ctx, ref)
	if err != nil {
		return nil, err
	}
	mgr, err := cli.manager()
	if err != nil {
		return nil, err
	}
	return mgr.Start(ctx, p)
}

// setIndex turns a 1-based set number from the command line into an index.
func setIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("set %q: want a number from 1", arg)
	}
	return n - 1, nil
}

var startCmd = &cobra.Command{
	Use:   "start <program>",
	Short: "Start or resume a workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if s.Resumed() {
			color.Cyan("↻ Resumed draft saved %s", s.SavedAt().Local().Format("15:04"))
		} else {
			color.Green("✓ Started %s", s.ProgramName())
		}
		printSession(s)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <program>",
	Short: "Show the sets of a workout in progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSession(s)
		if !watch {
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		for elapsed := range s.Tick(ctx) {
			fmt.Printf("\r%s elapsed ", session.FormatDuration(elapsed))
		}
		fmt.Println()
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <program> <set> <reps|weight|completed> <value>",
	Short: "Record a value for one set",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := setIndex(args[1])
		if err != nil {
			return err
		}
		field, err := session.ParseField(args[2])
		if err != nil {
			return err
		}
		value, err := session.ParseInput(field, args[3])
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.RecordSet(cmd.Context(), idx, field, value); err != nil {
			return err
		}
		printSession(s)
		return nil
	},
}

func stepCommand(use, short string, up bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <program> <set> <reps|weight>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := setIndex(args[1])
			if err != nil {
				return err
			}
			field, err := session.ParseField(args[2])
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch {
			case field == session.FieldReps && up:
				err = s.IncrementReps(ctx, idx)
			case field == session.FieldReps:
				err = s.DecrementReps(ctx, idx)
			case field == session.FieldWeight && up:
				err = s.IncrementWeight(ctx, idx)
			case field == session.FieldWeight:
				err = s.DecrementWeight(ctx, idx)
			default:
				return fmt.Errorf("%s works on reps or weight", use)
			}
			if err != nil {
				return err
			}
			printSession(s)
			return nil
		},
	}
}

var doneCmd = &cobra.Command{
	Use:   "done <program> <set>",
	Short: "Toggle a set's completed mark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := setIndex(args[1])
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.ToggleCompleted(cmd.Context(), idx); err != nil {
			return err
		}
		printSession(s)
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <program> <set>",
	Short: "Copy reps and weight from the last completed workout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := setIndex(args[1])
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		copied, err := s.CopyPrevious(cmd.Context(), idx)
		if err != nil {
			return err
		}
		if !copied {
			color.Yellow("⚠ No matching set in the previous workout")
		}
		printSession(s)
		return nil
	},
}

var notesCmd = &cobra.Command{
	Use:   "notes <program> <text>...",
	Short: "Set the workout notes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.SetNotes(cmd.Context(), strings.Join(args[1:], " ")); err != nil {
			return err
		}
		color.Green("✓ Notes saved")
		return nil
	},
}

var discardCmd = &cobra.Command{
	Use:   "discard <program>",
	Short: "Throw away a draft and start over",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := s.Discard(cmd.Context()); err != nil {
			return err
		}
		color.Green("✓ Draft discarded")
		printSession(s)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <program>",
	Short: "Leave a workout, keeping its draft unless --discard is given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !s.HasProgress() && !discardOnly {
			fmt.Println("Nothing recorded yet.")
			return nil
		}
		if err := s.Cancel(cmd.Context(), !discardOnly); err != nil {
			return err
		}
		if discardOnly {
			color.Green("✓ Workout cancelled and draft deleted")
		} else {
			color.Yellow("Draft kept. Resume with 'start %s' within 24 hours.", args[0])
		}
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <program>",
	Short: "Finish the workout and send it to the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w, err := s.Submit(cmd.Context(), confirmZero)
		switch {
		case errors.Is(err, session.ErrZeroWeight):
			color.Yellow("⚠ Some sets have zero weight. Re-run with --confirm-zero to submit anyway.")
			return nil
		case err != nil:
			color.Red("✗ Submit failed, your draft is kept: %v", err)
			return err
		}
		color.Green("✓ Workout saved: %d sets in %s", len(w.Sets), session.FormatDuration(s.Elapsed()))
		return nil
	},
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List unfinished workouts that can be resumed",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := cli.manager()
		if err != nil {
			return err
		}
		drafts, err := mgr.Resumable(cmd.Context())
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Println("No unfinished workouts.")
			return nil
		}

		names := map[string]string{}
		if programs, err := cli.api.ListPrograms(cmd.Context()); err == nil {
			for _, p := range programs {
				names[p.ID.String()] = p.Name
			}
		}
		faint := color.New(color.Faint)
		for _, d := range drafts {
			name := names[d.ProgramID.String()]
			if name == "" {
				name = d.ProgramID.String()
			}
			fmt.Printf("%s %s %s\n",
				faint.Sprint(d.ProgramID.String()[:8]),
				padRight(name, 24),
				faint.Sprintf("saved %s ago", session.FormatDuration(time.Since(d.SavedAt))))
		}
		return nil
	},
}

func printSession(s *session.Session) {
	faint := color.New(color.Faint)
	fmt.Printf("%s  %s  %s\n",
		color.New(color.Bold).Sprint(s.ProgramName()),
		faint.Sprint(s.State()),
		faint.Sprintf("%s elapsed", session.FormatDuration(s.Elapsed())))

	for i, set := range s.Sets() {
		mark := "[ ]"
		if set.Completed {
			mark = color.GreenString("[✓]")
		}
		prev := ""
		if p, ok := s.Previous(i); ok {
			prev = faint.Sprintf("last %d x %g", p.Reps, p.Weight)
		}
		fmt.Printf("%3d %s %s #%d  %3d reps  %6g  %s\n",
			i+1, mark, padRight(set.ExerciseName, 20), set.SetNumber, set.Reps, set.Weight, prev)
	}
	if n := s.Notes(); n != "" {
		fmt.Printf("  notes: %s\n", n)
	}
}

func init() {
	statusCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep showing elapsed time until interrupted")
	cancelCmd.Flags().BoolVar(&discardOnly, "discard", false, "delete the draft instead of keeping it")
	submitCmd.Flags().BoolVar(&confirmZero, "confirm-zero", false, "submit even if some sets have zero weight")

	rootCmd.AddCommand(startCmd, statusCmd, setCmd,
		stepCommand("inc", "Increase reps by 1 or weight by --weight-step", true),
		stepCommand("dec", "Decrease reps by 1 or weight by --weight-step", false),
		doneCmd, copyCmd, notesCmd, discardCmd, cancelCmd, submitCmd, draftsCmd)
}
