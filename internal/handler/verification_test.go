package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

func TestGenerateAndValidate(t *testing.T) {
	s := setupServer(t, false)
	h := s.household(t, "alice", "fluffy")
	s.user(t, "bob")

	rec := s.do(t, "POST", "/api/verification/generate", "alice", map[string]string{"householdId": h.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d: %s", rec.Code, rec.Body.String())
	}
	var gen generateResponse
	decodeBody(t, rec, &gen)
	if !regexp.MustCompile(`^\d{6}$`).MatchString(gen.Code) {
		t.Errorf("code = %q, want 6 digits", gen.Code)
	}
	if !gen.ExpiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %v, want in the future", gen.ExpiresAt)
	}

	rec = s.do(t, "POST", "/api/verification/validate", "bob", map[string]string{"code": gen.Code, "secret": "fluffy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: status %d: %s", rec.Code, rec.Body.String())
	}
	var val validateResponse
	decodeBody(t, rec, &val)
	if !val.Success || val.HouseholdID != h.ID || val.AlreadyMember {
		t.Errorf("validate response = %+v", val)
	}

	rec = s.do(t, "GET", "/api/households/"+h.ID, "bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bob cannot see household after joining: %d", rec.Code)
	}
	var d model.HouseholdDetail
	decodeBody(t, rec, &d)
	if len(d.Members) != 2 {
		t.Errorf("members = %d, want 2", len(d.Members))
	}

	// The code is single use.
	s.user(t, "carol")
	rec = s.do(t, "POST", "/api/verification/validate", "carol", map[string]string{"code": gen.Code, "secret": "fluffy"})
	assertError(t, rec, http.StatusBadRequest, "invalid_or_expired_code")
}

func TestGenerateRequiresAdmin(t *testing.T) {
	s := setupServer(t, false)
	h := s.household(t, "alice", "fluffy")
	s.user(t, "mallory")

	rec := s.do(t, "POST", "/api/verification/generate", "mallory", map[string]string{"householdId": h.ID})
	assertError(t, rec, http.StatusForbidden, "forbidden")
}

func TestGenerateMissingHousehold(t *testing.T) {
	s := setupServer(t, false)
	s.user(t, "alice")

	rec := s.do(t, "POST", "/api/verification/generate", "alice", map[string]string{})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestValidateWrongSecret(t *testing.T) {
	s := setupServer(t, false)
	h := s.household(t, "alice", "fluffy")
	s.user(t, "bob")

	rec := s.do(t, "POST", "/api/verification/generate", "alice", map[string]string{"householdId": h.ID})
	var gen generateResponse
	decodeBody(t, rec, &gen)

	rec = s.do(t, "POST", "/api/verification/validate", "bob", map[string]string{"code": gen.Code, "secret": "wrong"})
	assertError(t, rec, http.StatusBadRequest, "invalid_or_expired_code")

	rec = s.do(t, "POST", "/api/verification/validate", "bob", map[string]string{"code": "000000", "secret": "fluffy"})
	assertError(t, rec, http.StatusBadRequest, "invalid_or_expired_code")

	rec = s.do(t, "POST", "/api/verification/validate", "bob", map[string]string{"code": gen.Code})
	assertError(t, rec, http.StatusBadRequest, "invalid_input")
}

func TestValidateAlreadyMember(t *testing.T) {
	s := setupServer(t, false)
	h := s.household(t, "alice", "fluffy")

	rec := s.do(t, "POST", "/api/verification/generate", "alice", map[string]string{"householdId": h.ID})
	var gen generateResponse
	decodeBody(t, rec, &gen)

	rec = s.do(t, "POST", "/api/verification/validate", "alice", map[string]string{"code": gen.Code, "secret": "fluffy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var val validateResponse
	decodeBody(t, rec, &val)
	if !val.AlreadyMember {
		t.Error("alreadyMember should be true")
	}
}
