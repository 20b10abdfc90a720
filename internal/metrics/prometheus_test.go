package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusRecorderExposesCounters(t *testing.T) {
	p := NewPrometheus()
	p.IncCodeGenerated()
	p.IncCodeValidation(OutcomeJoined)
	p.IncCodeValidation(OutcomeRejected)
	p.IncCodeValidation(OutcomeRejected)
	p.AddCodesCleaned(3)
	p.IncHouseholdCreated()
	p.IncMemberLeft(OutcomePromoted)
	p.ObserveRequest(http.MethodPost, "/api/verification/validate", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		"hearth_verification_codes_generated_total 1",
		`hearth_verification_code_validations_total{outcome="rejected"} 2`,
		"hearth_verification_codes_cleaned_total 3",
		"hearth_households_created_total 1",
		`hearth_household_departures_total{outcome="promoted"} 1`,
		`hearth_http_request_duration_seconds_count{method="POST",route="/api/verification/validate",status="200"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoop()
	r.IncCodeGenerated()
	r.IncCodeValidation(OutcomeJoined)
	r.AddCodesCleaned(1)
	r.IncHouseholdCreated()
	r.IncMemberLeft(OutcomeLeft)
	r.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}
