// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Verification codes
	IncCodeGenerated()
	IncCodeValidation(outcome string) // "joined", "already_member", "rejected"
	AddCodesCleaned(n int64)

	// Membership transitions
	IncHouseholdCreated()
	IncMemberLeft(outcome string) // "left", "promoted", "household_deleted"

	// HTTP
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Validation outcomes.
const (
	OutcomeJoined        = "joined"
	OutcomeAlreadyMember = "already_member"
	OutcomeRejected      = "rejected"
)

// Leave outcomes.
const (
	OutcomeLeft             = "left"
	OutcomePromoted         = "promoted"
	OutcomeHouseholdDeleted = "household_deleted"
)
