package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/replog/internal/models"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	programDesc      string
	programExercises []string
)

var programsCmd = &cobra.Command{
	Use:     "programs",
	Aliases: []string{"p"},
	Short:   "Manage training programs",
	Long: `Manage training programs.

Exercises are given as NAME:SETSxREPS, for example "Bench Press:3x8".
Programs can be referred to by id, id prefix or a case-insensitive name
prefix.`,
}

var programsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List programs",
	RunE: func(cmd *cobra.Command, args []string) error {
		programs, err := cli.api.ListPrograms(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing programs: %w", err)
		}
		if len(programs) == 0 {
			fmt.Println("No programs yet. Create one with 'programs create'.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range programs {
			shared := ""
			if p.SharedByName != nil {
				shared = faint.Sprintf("shared by %s", *p.SharedByName)
			}
			fmt.Printf("%s %s %d exercises %s\n",
				faint.Sprint(p.ID.String()[:8]),
				padRight(p.Name, 24),
				len(p.Exercises),
				shared)
		}
		return nil
	},
}

var programsShowCmd = &cobra.Command{
	Use:   "show <program>",
	Short: "Show a program's exercises",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printProgram(p)
		return nil
	},
}

var programsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := programInput(args[0])
		if err != nil {
			return err
		}
		p, err := cli.api.CreateProgram(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("creating program: %w", err)
		}
		color.Green("✓ Created %s", p.Name)
		printProgram(p)
		return nil
	},
}

var programsEditCmd = &cobra.Command{
	Use:   "edit <program> <name>",
	Short: "Replace a program's name, description and exercises",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		in, err := programInput(args[1])
		if err != nil {
			return err
		}
		updated, err := cli.api.UpdateProgram(cmd.Context(), p.ID, in)
		if err != nil {
			return fmt.Errorf("updating program: %w", err)
		}
		color.Green("✓ Updated %s", updated.Name)
		printProgram(updated)
		return nil
	},
}

var programsDeleteCmd = &cobra.Command{
	Use:     "delete <program>",
	Aliases: []string{"rm"},
	Short:   "Delete a program and its workouts",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := cli.api.DeleteProgram(cmd.Context(), p.ID); err != nil {
			return fmt.Errorf("deleting program: %w", err)
		}
		color.Green("✓ Deleted %s", p.Name)
		return nil
	},
}

var programsShareCmd = &cobra.Command{
	Use:   "share <program> <email>",
	Short: "Copy a program into another user's account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProgram(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		res, err := cli.api.ShareProgram(cmd.Context(), p.ID, args[1])
		if err != nil {
			return fmt.Errorf("sharing program: %w", err)
		}
		color.Green("✓ %s", res.Message)
		return nil
	},
}

func programInput(name string) (models.ProgramInput, error) {
	in := models.ProgramInput{Name: name}
	if programDesc != "" {
		d := programDesc
		in.Description = &d
	}
	for _, spec := range programExercises {
		ex, err := parseExercise(spec)
		if err != nil {
			return in, err
		}
		in.Exercises = append(in.Exercises, ex)
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

// parseExercise reads NAME:SETSxREPS.
func parseExercise(spec string) (models.ExerciseInput, error) {
	i := strings.LastIndex(spec, ":")
	if i < 0 {
		return models.ExerciseInput{}, fmt.Errorf("exercise %q: want NAME:SETSxREPS", spec)
	}
	sets, reps, ok := strings.Cut(strings.ToLower(strings.TrimSpace(spec[i+1:])), "x")
	if !ok {
		return models.ExerciseInput{}, fmt.Errorf("exercise %q: want NAME:SETSxREPS", spec)
	}
	s, err := strconv.Atoi(strings.TrimSpace(sets))
	if err != nil {
		return models.ExerciseInput{}, fmt.Errorf("exercise %q: invalid sets", spec)
	}
	r, err := strconv.Atoi(strings.TrimSpace(reps))
	if err != nil {
		return models.ExerciseInput{}, fmt.Errorf("exercise %q: invalid reps", spec)
	}
	return models.ExerciseInput{Name: strings.TrimSpace(spec[:i]), Sets: s, Reps: r}, nil
}

// resolveProgram finds one program by id, id prefix or name prefix.
func resolveProgram(ctx context.Context, ref string) (*models.Program, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return cli.api.GetProgram(ctx, id)
	}

	programs, err := cli.api.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	return matchProgram(programs, ref)
}

func matchProgram(programs []models.Program, ref string) (*models.Program, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, fmt.Errorf("no program given")
	}

	var matches []models.Program
	for _, p := range programs {
		if strings.HasPrefix(p.ID.String(), ref) || strings.HasPrefix(strings.ToLower(p.Name), ref) {
			matches = append(matches, p)
		}
	}
	for _, p := range matches {
		if strings.EqualFold(p.Name, ref) {
			return &p, nil
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no program matches %q", ref)
	case 1:
		return &matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, p := range matches {
			names[i] = p.Name
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", ref, strings.Join(names, ", "))
	}
}

func printProgram(p *models.Program) {
	faint := color.New(color.Faint)
	fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(p.Name), faint.Sprint(p.ID.String()[:8]))
	if p.Description != nil {
		fmt.Printf("  %s\n", *p.Description)
	}
	if p.SharedByName != nil {
		fmt.Printf("  %s\n", faint.Sprintf("shared by %s", *p.SharedByName))
	}
	for i, ex := range p.Exercises {
		fmt.Printf("  %d. %s %dx%d\n", i+1, padRight(ex.Name, 24), ex.Sets, ex.Reps)
	}
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	for _, c := range []*cobra.Command{programsCreateCmd, programsEditCmd} {
		c.Flags().StringVarP(&programDesc, "description", "d", "", "program description")
		c.Flags().StringArrayVarP(&programExercises, "exercise", "e", nil, "exercise as NAME:SETSxREPS (repeatable, in order)")
	}

	programsCmd.AddCommand(programsListCmd, programsShowCmd, programsCreateCmd,
		programsEditCmd, programsDeleteCmd, programsShareCmd)
	rootCmd.AddCommand(programsCmd)
}
