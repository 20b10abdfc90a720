package model

import "time"

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

type Household struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Secret      *string   `json:"secret,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Membership binds a user to a household. (UserID, HouseholdID) is unique.
type Membership struct {
	UserID      string    `json:"userId"`
	HouseholdID string    `json:"householdId"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
	User        *User     `json:"user,omitempty"`
}

// HouseholdDetail is a household together with its members and lists, the
// shape returned by the household read endpoints.
type HouseholdDetail struct {
	Household
	Members []Membership `json:"members"`
	Lists   []List       `json:"lists"`
}
