package model

import "time"

type VerificationCode struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	HouseholdID string    `json:"householdId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Used        bool      `json:"used"`
	CreatedAt   time.Time `json:"createdAt"`
}
