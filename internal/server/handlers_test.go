package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/replog/internal/auth"
	"github.com/claude/replog/internal/models"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const testSecret = "test-secret-test-secret"

type testEnv struct {
	t     *testing.T
	srv   *Server
	store *memStore
	clock *clockwork.FakeClock
}

func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Now())
	opts := Options{
		Issuer:        auth.NewIssuer(testSecret, 0, 0, clock),
		RatePerSecond: 100,
		RateBurst:     100,
		Clock:         clock,
	}
	for _, m := range mutate {
		m(&opts)
	}
	store := newMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{t: t, srv: New(store, opts, log), store: store, clock: clock}
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

// signup registers a user and returns a session token for them.
func (e *testEnv) signup(email, name string) (string, uuid.UUID) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/auth/register",
		models.RegisterInput{Email: email, Password: "password123", Name: name}, "")
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("register status = %d, body %s", rec.Code, rec.Body)
	}
	var u models.User
	decode(e.t, rec, &u)

	rec = e.do(http.MethodPost, "/api/v1/auth/login",
		models.LoginInput{Email: email, Password: "password123"}, "")
	if rec.Code != http.StatusOK {
		e.t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	var lr loginResponse
	decode(e.t, rec, &lr)
	return lr.Token, u.ID
}

func (e *testEnv) createProgram(token string, in models.ProgramInput) models.Program {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/programs", in, token)
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("create program status = %d, body %s", rec.Code, rec.Body)
	}
	var p models.Program
	decode(e.t, rec, &p)
	return p
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func pushDay() models.ProgramInput {
	return models.ProgramInput{
		Name: "Push Day",
		Exercises: []models.ExerciseInput{
			{Name: "Bench Press", Sets: 3, Reps: 8},
			{Name: "Overhead Press", Sets: 3, Reps: 10},
		},
	}
}

// TestHealth verifies /healthz reports database reachability.
func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	env.store.pingErr = errors.New("down")
	if rec := env.do(http.MethodGet, "/healthz", nil, ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestRegister covers validation, email normalisation and duplicates.
func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/auth/register",
		models.RegisterInput{Email: " Ann@Example.com ", Password: "password123", Name: "Ann"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var u models.User
	decode(t, rec, &u)
	if u.Email != "ann@example.com" {
		t.Errorf("email = %q, want lower-cased", u.Email)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response must not expose the password hash")
	}

	rec = env.do(http.MethodPost, "/api/v1/auth/register",
		models.RegisterInput{Email: "ann@example.com", Password: "password123"}, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/v1/auth/register",
		models.RegisterInput{Email: "bob@example.com", Password: "short"}, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password status = %d, want 400", rec.Code)
	}
}

// TestLoginTokenLifetime verifies the cookie and token lifetime follow the
// remember-me flag.
func TestLoginTokenLifetime(t *testing.T) {
	env := newTestEnv(t)
	env.signup("ann@example.com", "Ann")

	tests := []struct {
		remember bool
		want     time.Duration
	}{
		{false, 24 * time.Hour},
		{true, 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		rec := env.do(http.MethodPost, "/api/v1/auth/login",
			models.LoginInput{Email: "ANN@example.com", Password: "password123", RememberMe: tt.remember}, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != auth.CookieName {
			t.Fatalf("cookies = %v, want one %s", cookies, auth.CookieName)
		}
		if got := time.Duration(cookies[0].MaxAge) * time.Second; got != tt.want {
			t.Errorf("remember=%v: MaxAge = %v, want %v", tt.remember, got, tt.want)
		}
		if !cookies[0].HttpOnly {
			t.Error("cookie should be HttpOnly")
		}
		var lr loginResponse
		decode(t, rec, &lr)
		if got := lr.ExpiresAt.Sub(env.clock.Now()); got != tt.want {
			t.Errorf("remember=%v: expires in %v, want %v", tt.remember, got, tt.want)
		}
	}
}

// TestLoginInvalidCredentials verifies unknown emails and wrong passwords
// get the same answer.
func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signup("ann@example.com", "Ann")

	for _, in := range []models.LoginInput{
		{Email: "ann@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password123"},
	} {
		rec := env.do(http.MethodPost, "/api/v1/auth/login", in, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", in.Email, rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "invalid credentials" {
			t.Errorf("%s: error = %q", in.Email, msg)
		}
	}
}

// TestAuthRequired verifies protected routes reject missing, bad and
// expired tokens and accept the session cookie.
func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")

	if rec := env.do(http.MethodGet, "/api/v1/programs", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/v1/programs", nil, "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie: status = %d, want 200", rec.Code)
	}

	env.clock.Advance(25 * time.Hour)
	if rec := env.do(http.MethodGet, "/api/v1/programs", nil, token); rec.Code != http.StatusUnauthorized {
		t.Errorf("expired: status = %d, want 401", rec.Code)
	}
}

// TestLogoutClearsCookie verifies logout expires the session cookie.
func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/api/v1/auth/logout", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("cookies = %+v, want an expired %s", cookies, auth.CookieName)
	}
}

// TestMe returns the authenticated user.
func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token, id := env.signup("ann@example.com", "Ann")

	rec := env.do(http.MethodGet, "/api/v1/me", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var u models.User
	decode(t, rec, &u)
	if u.ID != id || u.Name != "Ann" {
		t.Errorf("me = %+v", u)
	}
}

// TestProgramLifecycle creates, lists, replaces and deletes a program.
func TestProgramLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, uid := env.signup("ann@example.com", "Ann")

	p := env.createProgram(token, pushDay())
	if p.UserID != uid {
		t.Errorf("user_id = %v, want %v", p.UserID, uid)
	}
	for i, ex := range p.Exercises {
		if ex.Position != i {
			t.Errorf("exercise %d position = %d", i, ex.Position)
		}
	}
	legs := env.createProgram(token, models.ProgramInput{
		Name: "Legs", Exercises: []models.ExerciseInput{{Name: "Squat", Sets: 5, Reps: 5}},
	})

	rec := env.do(http.MethodGet, "/api/v1/programs", nil, token)
	var list []models.Program
	decode(t, rec, &list)
	if len(list) != 2 || list[0].ID != legs.ID {
		t.Fatalf("list = %+v, want newest (Legs) first", list)
	}

	update := models.ProgramInput{
		Name: "  Push Day v2 ",
		Exercises: []models.ExerciseInput{
			{Name: "Dips", Sets: 3, Reps: 12},
			{Name: "Bench Press", Sets: 4, Reps: 6},
			{Name: "Flyes", Sets: 2, Reps: 15},
		},
	}
	rec = env.do(http.MethodPut, "/api/v1/programs/"+p.ID.String(), update, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	var updated models.Program
	decode(t, rec, &updated)
	if updated.Name != "Push Day v2" {
		t.Errorf("name = %q, want trimmed", updated.Name)
	}
	if len(updated.Exercises) != 3 || updated.Exercises[0].Name != "Dips" || updated.Exercises[2].Position != 2 {
		t.Errorf("exercises = %+v, want replaced list in order", updated.Exercises)
	}

	rec = env.do(http.MethodDelete, "/api/v1/programs/"+p.ID.String(), nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(http.MethodGet, "/api/v1/programs/"+p.ID.String(), nil, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

// TestProgramValidation rejects incomplete programs.
func TestProgramValidation(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")

	tests := []struct {
		name string
		in   models.ProgramInput
	}{
		{"blank name", models.ProgramInput{Name: "   ", Exercises: pushDay().Exercises}},
		{"no exercises", models.ProgramInput{Name: "Empty"}},
		{"zero sets", models.ProgramInput{Name: "X", Exercises: []models.ExerciseInput{{Name: "Row", Sets: 0, Reps: 5}}}},
		{"unnamed exercise", models.ProgramInput{Name: "X", Exercises: []models.ExerciseInput{{Sets: 3, Reps: 5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/programs", tt.in, token)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/programs", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", rec.Code)
	}
}

// TestProgramOwnership verifies another user's program looks nonexistent.
func TestProgramOwnership(t *testing.T) {
	env := newTestEnv(t)
	ann, _ := env.signup("ann@example.com", "Ann")
	bob, _ := env.signup("bob@example.com", "Bob")
	p := env.createProgram(ann, pushDay())
	path := "/api/v1/programs/" + p.ID.String()

	if rec := env.do(http.MethodGet, path, nil, bob); rec.Code != http.StatusNotFound {
		t.Errorf("get: status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodPut, path, pushDay(), bob); rec.Code != http.StatusNotFound {
		t.Errorf("put: status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodDelete, path, nil, bob); rec.Code != http.StatusNotFound {
		t.Errorf("delete: status = %d, want 404", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/api/v1/programs/not-a-uuid", nil, ann); rec.Code != http.StatusNotFound {
		t.Errorf("malformed id: status = %d, want 404", rec.Code)
	}

	rec := env.do(http.MethodGet, "/api/v1/programs", nil, bob)
	var list []models.Program
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("bob sees %d programs, want 0", len(list))
	}
}

// TestShareProgram copies a program to another user with provenance.
func TestShareProgram(t *testing.T) {
	env := newTestEnv(t)
	ann, _ := env.signup("ann@example.com", "Ann")
	bob, _ := env.signup("bob@example.com", "")
	p := env.createProgram(ann, pushDay())
	path := "/api/v1/programs/" + p.ID.String() + "/share"

	rec := env.do(http.MethodPost, path, shareRequest{Email: "  BOB@example.com"}, ann)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp shareResponse
	decode(t, rec, &resp)
	if !resp.Success || resp.SharedProgram == nil {
		t.Fatalf("response = %+v", resp)
	}
	cp := resp.SharedProgram
	if cp.ID == p.ID || cp.Name != p.Name || len(cp.Exercises) != len(p.Exercises) {
		t.Errorf("copy = %+v, want a new program with the same content", cp)
	}
	if cp.SharedByName == nil || *cp.SharedByName != "Ann" {
		t.Errorf("shared_by_name = %v, want Ann", cp.SharedByName)
	}

	rec = env.do(http.MethodGet, "/api/v1/programs", nil, bob)
	var bobs []models.Program
	decode(t, rec, &bobs)
	if len(bobs) != 1 || bobs[0].ID != cp.ID {
		t.Errorf("bob's programs = %+v", bobs)
	}

	// Sharing back falls back to the email for a sharer without a name.
	rec = env.do(http.MethodPost, "/api/v1/programs/"+cp.ID.String()+"/share", shareRequest{Email: "ann@example.com"}, bob)
	decode(t, rec, &resp)
	if resp.SharedProgram == nil || *resp.SharedProgram.SharedByName != "bob@example.com" {
		t.Errorf("shared_by_name = %v, want bob@example.com", resp.SharedProgram)
	}
}

// TestShareProgramErrors covers the share failure modes.
func TestShareProgramErrors(t *testing.T) {
	env := newTestEnv(t)
	ann, _ := env.signup("ann@example.com", "Ann")
	bob, _ := env.signup("bob@example.com", "Bob")
	p := env.createProgram(ann, pushDay())
	path := "/api/v1/programs/" + p.ID.String() + "/share"

	tests := []struct {
		name   string
		token  string
		email  string
		status int
	}{
		{"missing email", ann, "  ", http.StatusBadRequest},
		{"missing email before ownership", bob, "", http.StatusBadRequest},
		{"unknown user", ann, "nobody@example.com", http.StatusNotFound},
		{"self share", ann, "Ann@Example.com", http.StatusBadRequest},
		{"not owner", bob, "ann@example.com", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, path, shareRequest{Email: tt.email}, tt.token)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
		})
	}

	rec := env.do(http.MethodGet, "/api/v1/programs", nil, bob)
	var bobs []models.Program
	decode(t, rec, &bobs)
	if len(bobs) != 0 {
		t.Errorf("failed shares created %d programs", len(bobs))
	}
}

// TestWorkoutCreate logs a workout and reads it back.
func TestWorkoutCreate(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")
	p := env.createProgram(token, pushDay())

	notes := "felt strong"
	dur := 1800
	no := false
	in := models.WorkoutInput{
		ProgramID:   p.ID,
		Notes:       &notes,
		DurationSec: &dur,
		Sets: []models.WorkoutSetInput{
			{ExerciseName: "Bench Press", SetNumber: 1, Reps: 8, Weight: 135},
			{ExerciseName: "Bench Press", SetNumber: 2, Reps: 6, Weight: 135, Completed: &no},
		},
	}
	rec := env.do(http.MethodPost, "/api/v1/workouts", in, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var w models.Workout
	decode(t, rec, &w)
	if !w.Completed {
		t.Error("completed should default to true")
	}
	if !w.Sets[0].Completed || w.Sets[1].Completed {
		t.Errorf("set completed flags = %v/%v, want true/false", w.Sets[0].Completed, w.Sets[1].Completed)
	}
	if w.ProgramName != "Push Day" {
		t.Errorf("program_name = %q", w.ProgramName)
	}

	rec = env.do(http.MethodGet, "/api/v1/workouts/"+w.ID.String(), nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got models.Workout
	decode(t, rec, &got)
	if len(got.Sets) != 2 || got.Notes == nil || *got.Notes != notes || *got.DurationSec != dur {
		t.Errorf("workout = %+v", got)
	}
}

// TestWorkoutCreateErrors covers validation and ownership failures.
func TestWorkoutCreateErrors(t *testing.T) {
	env := newTestEnv(t)
	ann, _ := env.signup("ann@example.com", "Ann")
	bob, _ := env.signup("bob@example.com", "Bob")
	p := env.createProgram(ann, pushDay())
	set := models.WorkoutSetInput{ExerciseName: "Bench Press", SetNumber: 1, Reps: 5, Weight: 100}

	tests := []struct {
		name   string
		token  string
		in     models.WorkoutInput
		status int
	}{
		{"no sets", ann, models.WorkoutInput{ProgramID: p.ID}, http.StatusBadRequest},
		{"missing program", ann, models.WorkoutInput{Sets: []models.WorkoutSetInput{set}}, http.StatusBadRequest},
		{"negative weight", ann, models.WorkoutInput{ProgramID: p.ID, Sets: []models.WorkoutSetInput{{ExerciseName: "Bench Press", SetNumber: 1, Weight: -5}}}, http.StatusBadRequest},
		{"duplicate set", ann, models.WorkoutInput{ProgramID: p.ID, Sets: []models.WorkoutSetInput{set, set}}, http.StatusBadRequest},
		{"unknown program", ann, models.WorkoutInput{ProgramID: uuid.New(), Sets: []models.WorkoutSetInput{set}}, http.StatusNotFound},
		{"other user's program", bob, models.WorkoutInput{ProgramID: p.ID, Sets: []models.WorkoutSetInput{set}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/workouts", tt.in, tt.token)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

// TestWorkoutList verifies ordering, the program filter and paging.
func TestWorkoutList(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")
	push := env.createProgram(token, pushDay())
	legs := env.createProgram(token, models.ProgramInput{
		Name: "Legs", Exercises: []models.ExerciseInput{{Name: "Squat", Sets: 1, Reps: 5}},
	})

	var ids []uuid.UUID
	for _, pid := range []uuid.UUID{push.ID, legs.ID, push.ID} {
		rec := env.do(http.MethodPost, "/api/v1/workouts", models.WorkoutInput{
			ProgramID: pid,
			Sets:      []models.WorkoutSetInput{{ExerciseName: "Squat", SetNumber: 1, Reps: 5, Weight: 100}},
		}, token)
		var w models.Workout
		decode(t, rec, &w)
		ids = append(ids, w.ID)
	}

	rec := env.do(http.MethodGet, "/api/v1/workouts", nil, token)
	var all []models.Workout
	decode(t, rec, &all)
	if len(all) != 3 || all[0].ID != ids[2] {
		t.Fatalf("list = %d workouts, want 3 newest first", len(all))
	}

	rec = env.do(http.MethodGet, "/api/v1/workouts?program_id="+push.ID.String(), nil, token)
	var filtered []models.Workout
	decode(t, rec, &filtered)
	if len(filtered) != 2 {
		t.Errorf("filtered = %d, want 2", len(filtered))
	}

	rec = env.do(http.MethodGet, "/api/v1/workouts?limit=1&offset=1", nil, token)
	var page []models.Workout
	decode(t, rec, &page)
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Errorf("page = %+v, want the middle workout", page)
	}

	for _, q := range []string{"limit=0", "limit=abc", "offset=-1", "program_id=nope"} {
		if rec := env.do(http.MethodGet, "/api/v1/workouts?"+q, nil, token); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

// TestDeleteProgramRemovesWorkouts verifies deleting a program takes its
// workout history with it.
func TestDeleteProgramRemovesWorkouts(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")
	p := env.createProgram(token, pushDay())
	env.do(http.MethodPost, "/api/v1/workouts", models.WorkoutInput{
		ProgramID: p.ID,
		Sets:      []models.WorkoutSetInput{{ExerciseName: "Bench Press", SetNumber: 1, Reps: 5}},
	}, token)

	env.do(http.MethodDelete, "/api/v1/programs/"+p.ID.String(), nil, token)

	rec := env.do(http.MethodGet, "/api/v1/workouts", nil, token)
	var list []models.Workout
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("workouts after delete = %d, want 0", len(list))
	}
}

// TestMetricsEndpoint verifies domain counters are exposed.
func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")
	env.createProgram(token, pushDay())

	rec := env.do(http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"replog_programs_created_total 1", `replog_logins_total{result="success"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

// TestMCPMountedBehindAuth verifies the MCP handler requires a token and
// sees the caller's identity.
func TestMCPMountedBehindAuth(t *testing.T) {
	var seen uuid.UUID
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		seen = id.UserID
		w.WriteHeader(http.StatusOK)
	})
	env := newTestEnv(t, func(o *Options) { o.MCP = mcp })
	token, uid := env.signup("ann@example.com", "Ann")

	if rec := env.do(http.MethodPost, "/mcp", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := env.do(http.MethodPost, "/mcp", nil, token); rec.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", rec.Code)
	}
	if seen != uid {
		t.Errorf("mcp saw user %v, want %v", seen, uid)
	}
}

// TestWorkoutListCompletedFilter verifies abandoned workouts can be skipped.
func TestWorkoutListCompletedFilter(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")
	p := env.createProgram(token, pushDay())
	no := false
	for _, completed := range []*bool{nil, &no} {
		env.do(http.MethodPost, "/api/v1/workouts", models.WorkoutInput{
			ProgramID: p.ID,
			Completed: completed,
			Sets:      []models.WorkoutSetInput{{ExerciseName: "Bench Press", SetNumber: 1, Reps: 5}},
		}, token)
	}

	rec := env.do(http.MethodGet, "/api/v1/workouts?completed=true", nil, token)
	var list []models.Workout
	decode(t, rec, &list)
	if len(list) != 1 || !list[0].Completed {
		t.Errorf("completed workouts = %+v, want exactly the completed one", list)
	}
}

// TestExerciseHistory returns matching sets across workouts, newest first.
func TestExerciseHistory(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("ann@example.com", "Ann")
	p := env.createProgram(token, pushDay())
	for _, weight := range []float64{100, 105} {
		env.do(http.MethodPost, "/api/v1/workouts", models.WorkoutInput{
			ProgramID: p.ID,
			Sets: []models.WorkoutSetInput{
				{ExerciseName: "Bench Press", SetNumber: 1, Reps: 5, Weight: weight},
				{ExerciseName: "Overhead Press", SetNumber: 1, Reps: 5, Weight: 60},
			},
		}, token)
	}

	rec := env.do(http.MethodGet, "/api/v1/exercises/history?name=bench", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var sets []models.ExerciseSet
	decode(t, rec, &sets)
	if len(sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(sets))
	}
	if sets[0].Weight != 105 || sets[0].ProgramName != "Push Day" {
		t.Errorf("first set = %+v, want the newest bench set", sets[0])
	}

	if rec := env.do(http.MethodGet, "/api/v1/exercises/history", nil, token); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", rec.Code)
	}
}
