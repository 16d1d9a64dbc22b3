package mcp

import (
	"context"
	"errors"

	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List the user's training programs, newest first, each with its ordered exercises and target sets/reps."),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Get one training program with its ordered exercises."),
	mcp.WithString("program_id", mcp.Required(), mcp.Description("Program UUID")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List logged workouts, newest first, with every set (exercise, set number, reps, weight, completed)."),
	mcp.WithString("program_id", mcp.Description("Only workouts of this program (UUID)")),
	mcp.WithNumber("limit", mcp.Description("Maximum workouts to return. Defaults to 10."), mcp.Min(1), mcp.Max(200)),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Every logged set of an exercise across workouts, newest first. Useful for tracking progression."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (partial match, e.g. 'bench')")),
	mcp.WithNumber("limit", mcp.Description("Maximum sets to return. Defaults to 100."), mcp.Min(1), mcp.Max(1000)),
)

// --- Tool handlers ---

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("not authenticated"), nil
	}

	programs, err := h.ds.ListPrograms(ctx, uid)
	if err != nil {
		h.log.ErrorContext(ctx, "mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("not authenticated"), nil
	}
	raw, err := req.RequireString("program_id")
	if err != nil {
		return mcp.NewToolResultError("program_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("program_id must be a UUID"), nil
	}

	p, err := h.ds.GetProgram(ctx, id, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("program not found"), nil
	}
	if err != nil {
		h.log.ErrorContext(ctx, "mcp get_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("not authenticated"), nil
	}

	f := models.WorkoutFilter{Limit: req.GetInt("limit", 10)}
	if raw := req.GetString("program_id", ""); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return mcp.NewToolResultError("program_id must be a UUID"), nil
		}
		f.ProgramID = &id
	}

	workouts, err := h.ds.ListWorkouts(ctx, uid, f)
	if err != nil {
		h.log.ErrorContext(ctx, "mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("not authenticated"), nil
	}
	exercise, err := req.RequireString("exercise")
	if err != nil || exercise == "" {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	sets, err := h.ds.QueryExerciseHistory(ctx, uid, exercise, req.GetInt("limit", 100))
	if err != nil {
		h.log.ErrorContext(ctx, "mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sets)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
