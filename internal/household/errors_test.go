package household

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"forbidden", forbidden("no"), KindForbidden},
		{"wrapped", fmt.Errorf("handler: %w", invalidCode()), KindInvalidOrExpiredCode},
		{"internal with cause", internal("boom", cause), KindInternal},
		{"plain error", cause, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := internal("Failed to save", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if got, want := err.Error(), "internal: Failed to save: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindString(t *testing.T) {
	want := map[Kind]string{
		KindUnauthenticated:      "unauthenticated",
		KindForbidden:            "forbidden",
		KindNotFound:             "not_found",
		KindInvalidInput:         "invalid_input",
		KindInvalidOrExpiredCode: "invalid_or_expired_code",
		KindConflict:             "conflict",
		KindInternal:             "internal",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), s)
		}
	}
}
