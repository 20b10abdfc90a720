package household

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

func TestGenerateCode(t *testing.T) {
	env := setupService(t)
	h := env.household(t, "alice", "fluffy")

	vc, err := env.svc.GenerateCode(context.Background(), h.ID, "alice")
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if len(vc.Code) != 6 {
		t.Errorf("code = %q, want 6 digits", vc.Code)
	}
	if !vc.ExpiresAt.Equal(env.clock.Add(time.Hour)) {
		t.Errorf("expires at = %v, want %v", vc.ExpiresAt, env.clock.Add(time.Hour))
	}
}

func TestGenerateCodeRequiresAdmin(t *testing.T) {
	env := setupService(t)
	h := env.household(t, "alice", "fluffy")
	env.join(t, h.ID, "alice", "bob", "fluffy")
	env.user(t, "mallory")

	for _, userID := range []string{"bob", "mallory"} {
		_, err := env.svc.GenerateCode(context.Background(), h.ID, userID)
		assertKind(t, err, KindForbidden)
	}
}

func TestGenerateCodeUnknownHousehold(t *testing.T) {
	env := setupService(t)
	env.user(t, "alice")

	_, err := env.svc.GenerateCode(context.Background(), "missing", "alice")
	assertKind(t, err, KindForbidden)
}

func TestGenerateCodeMissingHouseholdID(t *testing.T) {
	env := setupService(t)
	env.user(t, "alice")

	_, err := env.svc.GenerateCode(context.Background(), "", "alice")
	assertKind(t, err, KindInvalidInput)
}

func TestGenerateTwiceInvalidatesFirst(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")
	env.user(t, "bob")

	first, err := env.svc.GenerateCode(ctx, h.ID, "alice")
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := env.svc.GenerateCode(ctx, h.ID, "alice")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.Code == second.Code {
		t.Skip("both draws produced the same value")
	}

	_, err = env.svc.ValidateAndJoin(ctx, first.Code, "fluffy", "bob")
	assertKind(t, err, KindInvalidOrExpiredCode)

	if _, err := env.svc.ValidateAndJoin(ctx, second.Code, "fluffy", "bob"); err != nil {
		t.Fatalf("second code should admit: %v", err)
	}
}

func TestValidateAndJoin(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")
	env.user(t, "bob")

	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")
	res, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", "bob")
	if err != nil {
		t.Fatalf("validate and join: %v", err)
	}
	if res.AlreadyMember {
		t.Error("AlreadyMember should be false")
	}
	if res.Household.ID != h.ID {
		t.Errorf("household = %q, want %q", res.Household.ID, h.ID)
	}
	if res.Household.Secret != nil {
		t.Error("secret must not be returned to a new member")
	}
	if got := env.role(t, h.ID, "bob"); got != model.RoleMember {
		t.Errorf("bob role = %q, want MEMBER", got)
	}
	if !env.notifier.has("member", "joined", "bob") {
		t.Error("expected member joined notification")
	}
}

func TestValidateAndJoinWrongSecretMatchesWrongCode(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")
	env.user(t, "bob")

	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")

	_, wrongSecret := env.svc.ValidateAndJoin(ctx, vc.Code, "wrong", "bob")
	assertKind(t, wrongSecret, KindInvalidOrExpiredCode)

	bogus := "100000"
	if vc.Code == bogus {
		bogus = "100001"
	}
	_, wrongCode := env.svc.ValidateAndJoin(ctx, bogus, "fluffy", "bob")
	assertKind(t, wrongCode, KindInvalidOrExpiredCode)

	if wrongSecret.Error() != wrongCode.Error() {
		t.Errorf("errors differ: %q vs %q", wrongSecret, wrongCode)
	}
	if got := env.role(t, h.ID, "bob"); got != "" {
		t.Errorf("bob should not be a member, role = %q", got)
	}
}

func TestValidateAndJoinExpiredCode(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")
	env.user(t, "bob")

	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")
	env.advance(store.CodeTTL + time.Minute)

	_, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", "bob")
	assertKind(t, err, KindInvalidOrExpiredCode)
}

func TestValidateAndJoinUsedCode(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")
	env.user(t, "bob")
	env.user(t, "carol")

	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")
	if _, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", "bob"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", "carol")
	assertKind(t, err, KindInvalidOrExpiredCode)
}

func TestValidateAndJoinAlreadyMember(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")
	env.user(t, "bob")

	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")
	res, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", "alice")
	if err != nil {
		t.Fatalf("validate as existing member: %v", err)
	}
	if !res.AlreadyMember {
		t.Error("AlreadyMember should be true")
	}
	if got := env.role(t, h.ID, "alice"); got != model.RoleAdmin {
		t.Errorf("alice role = %q, want ADMIN unchanged", got)
	}

	// The code was not consumed.
	if _, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", "bob"); err != nil {
		t.Fatalf("code should still admit bob: %v", err)
	}
}

func TestValidateAndJoinHouseholdWithoutSecret(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "")
	env.user(t, "bob")

	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")
	_, err := env.svc.ValidateAndJoin(ctx, vc.Code, "anything", "bob")
	assertKind(t, err, KindInvalidOrExpiredCode)
}

func TestValidateAndJoinMissingFields(t *testing.T) {
	env := setupService(t)
	env.user(t, "bob")

	tests := []struct {
		name, code, secret string
	}{
		{"no code", "", "fluffy"},
		{"blank code", "   ", "fluffy"},
		{"no secret", "123456", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.ValidateAndJoin(context.Background(), tt.code, tt.secret, "bob")
			assertKind(t, err, KindInvalidInput)
		})
	}
}

func TestValidateAndJoinConcurrent(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h := env.household(t, "alice", "fluffy")

	users := []string{"bob", "carol", "dave", "erin", "frank"}
	for _, u := range users {
		env.user(t, u)
	}
	vc, _ := env.svc.GenerateCode(ctx, h.ID, "alice")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var joined int
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := env.svc.ValidateAndJoin(ctx, vc.Code, "fluffy", userID)
			if err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
				return
			}
			if KindOf(err) != KindInvalidOrExpiredCode {
				t.Errorf("%s: kind = %s, want %s", userID, KindOf(err), KindInvalidOrExpiredCode)
			}
		}(u)
	}
	wg.Wait()

	if joined != 1 {
		t.Errorf("joined = %d, want 1", joined)
	}
	n, _ := store.NewHouseholdStore(env.db).CountMembers(ctx, h.ID)
	if n != 2 {
		t.Errorf("members = %d, want 2", n)
	}
}

func TestCleanupExpiredCodes(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()
	h1 := env.household(t, "alice", "fluffy")
	h2 := env.household(t, "bob", "rover")

	if _, err := env.svc.GenerateCode(ctx, h1.ID, "alice"); err != nil {
		t.Fatalf("generate h1: %v", err)
	}
	env.advance(2 * time.Hour)
	live, err := env.svc.GenerateCode(ctx, h2.ID, "bob")
	if err != nil {
		t.Fatalf("generate h2: %v", err)
	}

	n, err := env.svc.CleanupExpiredCodes(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned = %d, want 1", n)
	}

	codes, _ := store.NewVerificationStore(env.db).ListForHousehold(ctx, h2.ID)
	if len(codes) != 1 || codes[0].ID != live.ID {
		t.Errorf("live code should survive cleanup, got %+v", codes)
	}
}
