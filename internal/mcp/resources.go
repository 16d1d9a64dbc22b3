package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/replog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

const recentWorkoutsLimit = 20

var errNoUser = errors.New("no authenticated user")

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, errNoUser
	}

	workouts, err := h.ds.ListWorkouts(ctx, uid, models.WorkoutFilter{Limit: recentWorkoutsLimit})
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(workouts)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
