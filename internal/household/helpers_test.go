package household

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

type event struct {
	householdID, entity, action, id string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) Notify(householdID, entity, action, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{householdID, entity, action, id})
}

func (n *recordingNotifier) has(entity, action, id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e.entity == entity && e.action == action && e.id == id {
			return true
		}
	}
	return false
}

type testEnv struct {
	svc      *Service
	db       *sql.DB
	notifier *recordingNotifier
	clock    time.Time
}

func setupService(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, notifier: &recordingNotifier{}, clock: time.Now().UTC()}
	env.svc = NewService(db, env.notifier, nil, nil)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

// advance moves the service clock forward.
func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) user(t *testing.T, id string) {
	t.Helper()
	if _, err := store.NewUserStore(e.db).Upsert(context.Background(), id, id+"@example.com", nil); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

// household creates a household administered by adminID with the given
// secret.
func (e *testEnv) household(t *testing.T, adminID, secret string) *model.HouseholdDetail {
	t.Helper()
	e.user(t, adminID)
	h, err := e.svc.CreateHousehold(context.Background(), adminID, "Test Household", nil)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if secret != "" {
		if _, err := e.svc.UpdateSecret(context.Background(), h.ID, adminID, secret); err != nil {
			t.Fatalf("set secret: %v", err)
		}
	}
	return h
}

// join admits userID to householdID through a freshly generated code.
func (e *testEnv) join(t *testing.T, householdID, adminID, userID, secret string) {
	t.Helper()
	ctx := context.Background()
	e.user(t, userID)
	vc, err := e.svc.GenerateCode(ctx, householdID, adminID)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if _, err := e.svc.ValidateAndJoin(ctx, vc.Code, secret, userID); err != nil {
		t.Fatalf("join %s: %v", userID, err)
	}
}

func (e *testEnv) role(t *testing.T, householdID, userID string) model.Role {
	t.Helper()
	m, err := store.NewHouseholdStore(e.db).GetMember(context.Background(), householdID, userID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m == nil {
		return ""
	}
	return m.Role
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", want)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("err = %v (%T), want *Error", err, err)
	}
	if e.Kind != want {
		t.Fatalf("kind = %s, want %s (%v)", e.Kind, want, err)
	}
}
