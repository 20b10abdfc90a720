package auth

import (
	"context"
	"testing"
)

func TestWithIdentityAndFromContext(t *testing.T) {
	name := "Alice"
	ctx := WithIdentity(context.Background(), Identity{UserID: "user_1", Email: "alice@example.com", Name: &name})

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Identity in context")
	}
	if got.UserID != "user_1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user_1")
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "alice@example.com")
	}
	if got.Name == nil || *got.Name != "Alice" {
		t.Errorf("Name = %v, want Alice", got.Name)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing Identity")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "user_7"})
	if UserID(ctx) != "user_7" {
		t.Errorf("UserID = %q, want user_7", UserID(ctx))
	}
}

func TestUserIDMissing(t *testing.T) {
	if UserID(context.Background()) != "" {
		t.Error("expected empty user id for missing context")
	}
}
