package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
)

// testDB connects to the database named by REPLOG_TEST_DSN, applying
// migrations first. Tests are skipped when it is unset.
func testDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("REPLOG_TEST_DSN")
	if dsn == "" {
		t.Skip("REPLOG_TEST_DSN not set")
	}
	if err := RunMigrations(dsn, "../../migrations"); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func testUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), uuid.NewString()+"@example.com", name, "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func pushDay() models.ProgramInput {
	return models.ProgramInput{
		Name: "Push Day",
		Exercises: []models.ExerciseInput{
			{Name: "Bench Press", Sets: 3, Reps: 8},
			{Name: "Dips", Sets: 2, Reps: 10},
		},
	}
}

// TestUsers verifies lookup by email and id and the duplicate-email error.
func TestUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db, "Ada")

	got, err := db.GetUserByEmail(ctx, u.Email)
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail = %v, %v; want %v", got, err, u.ID)
	}
	if _, err := db.GetUserByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByID(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := db.CreateUser(ctx, u.Email, "Other", "hash"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("CreateUser(duplicate) error = %v, want ErrEmailTaken", err)
	}
}

// TestProgramUpdateReplacesExercises verifies an edit leaves exactly the
// submitted exercises at positions 0..n-1.
func TestProgramUpdateReplacesExercises(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db, "Ada")

	p, err := db.CreateProgram(ctx, u.ID, pushDay(), nil)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}

	in := models.ProgramInput{
		Name: "Push Day v2",
		Exercises: []models.ExerciseInput{
			{Name: "Overhead Press", Sets: 5, Reps: 5},
			{Name: "Bench Press", Sets: 4, Reps: 6},
			{Name: "Triceps Pushdown", Sets: 3, Reps: 12},
		},
	}
	if _, err := db.UpdateProgram(ctx, p.ID, u.ID, in); err != nil {
		t.Fatalf("UpdateProgram: %v", err)
	}

	got, err := db.GetProgram(ctx, p.ID, u.ID)
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if got.Name != "Push Day v2" || len(got.Exercises) != 3 {
		t.Fatalf("program = %+v", got)
	}
	for i, ex := range got.Exercises {
		if ex.Position != i || ex.Name != in.Exercises[i].Name {
			t.Errorf("exercise %d = %+v, want %s at position %d", i, ex, in.Exercises[i].Name, i)
		}
	}

	other := testUser(t, db, "Eve")
	if _, err := db.UpdateProgram(ctx, p.ID, other.ID, in); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProgram(other user) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetProgram(ctx, p.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProgram(other user) error = %v, want ErrNotFound", err)
	}
}

// TestProgramProvenance verifies shared copies keep the sharer's id and name.
func TestProgramProvenance(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sharer := testUser(t, db, "Ada")
	recipient := testUser(t, db, "Bob")

	p, err := db.CreateProgram(ctx, recipient.ID, pushDay(), &models.Provenance{SharedByID: sharer.ID, SharedByName: "Ada"})
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	got, err := db.GetProgram(ctx, p.ID, recipient.ID)
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if got.SharedByID == nil || *got.SharedByID != sharer.ID || got.SharedByName == nil || *got.SharedByName != "Ada" {
		t.Errorf("provenance = %v / %v, want %v / Ada", got.SharedByID, got.SharedByName, sharer.ID)
	}
}

// TestWorkouts covers creation, filtering, history and cascade delete.
func TestWorkouts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := testUser(t, db, "Ada")
	p, err := db.CreateProgram(ctx, u.ID, pushDay(), nil)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}

	no := false
	in := models.WorkoutInput{
		ProgramID: p.ID,
		Sets: []models.WorkoutSetInput{
			{ExerciseName: "Bench Press", SetNumber: 1, Reps: 8, Weight: 80},
			{ExerciseName: "Bench Press", SetNumber: 2, Reps: 7, Weight: 80, Completed: &no},
		},
	}
	w, err := db.CreateWorkout(ctx, u.ID, in)
	if err != nil {
		t.Fatalf("CreateWorkout: %v", err)
	}
	if !w.Completed || w.ProgramName != "Push Day" {
		t.Errorf("workout = %+v", w)
	}

	partial := in
	partial.Completed = &no
	if _, err := db.CreateWorkout(ctx, u.ID, partial); err != nil {
		t.Fatalf("CreateWorkout(partial): %v", err)
	}

	got, err := db.GetWorkout(ctx, w.ID, u.ID)
	if err != nil {
		t.Fatalf("GetWorkout: %v", err)
	}
	if len(got.Sets) != 2 || got.Sets[1].Completed {
		t.Errorf("sets = %+v", got.Sets)
	}

	yes := true
	done, err := db.ListWorkouts(ctx, u.ID, models.WorkoutFilter{ProgramID: &p.ID, Completed: &yes})
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if len(done) != 1 || done[0].ID != w.ID {
		t.Errorf("completed workouts = %d, want only %v", len(done), w.ID)
	}

	all, err := db.ListWorkouts(ctx, u.ID, models.WorkoutFilter{Limit: 1})
	if err != nil || len(all) != 1 {
		t.Errorf("ListWorkouts(limit 1) = %d, %v", len(all), err)
	}

	sets, err := db.QueryExerciseHistory(ctx, u.ID, "bench", 0)
	if err != nil {
		t.Fatalf("QueryExerciseHistory: %v", err)
	}
	if len(sets) != 4 {
		t.Errorf("history sets = %d, want 4", len(sets))
	}

	other := testUser(t, db, "Eve")
	if _, err := db.CreateWorkout(ctx, other.ID, in); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateWorkout(other user's program) error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteProgram(ctx, p.ID, u.ID); err != nil {
		t.Fatalf("DeleteProgram: %v", err)
	}
	if _, err := db.GetWorkout(ctx, w.ID, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWorkout after program delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteProgram(ctx, p.ID, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProgram twice error = %v, want ErrNotFound", err)
	}
}
