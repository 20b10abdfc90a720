package model

import "time"

type ListType string

const (
	ListTypeTodo     ListType = "TODO"
	ListTypeGrocery  ListType = "GROCERY"
	ListTypeShopping ListType = "SHOPPING"
	ListTypeOther    ListType = "OTHER"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type List struct {
	ID          string     `json:"id"`
	HouseholdID string     `json:"householdId"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Type        ListType   `json:"type"`
	IsArchived  bool       `json:"isArchived"`
	CreatedByID string     `json:"createdById"`
	Items       []ListItem `json:"items"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ListItem struct {
	ID            string     `json:"id"`
	ListID        string     `json:"listId"`
	Text          string     `json:"text"`
	Description   *string    `json:"description"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt"`
	CompletedByID *string    `json:"completedById"`
	Priority      *Priority  `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	CreatedByID   string     `json:"createdById"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
