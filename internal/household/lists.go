package household

import (
	"context"
	"strings"
	"time"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// ItemInput holds the fields of a new list item.
type ItemInput struct {
	Text        string
	Description *string
	Priority    *model.Priority
	DueDate     *time.Time
}

// ItemPatch is a partial update. Unset fields are left alone; Optional
// fields set to null are cleared.
type ItemPatch struct {
	Text        model.Optional[string]         `json:"text"`
	Description model.Optional[string]         `json:"description"`
	Completed   model.Optional[bool]           `json:"completed"`
	Priority    model.Optional[model.Priority] `json:"priority"`
	DueDate     model.Optional[time.Time]      `json:"dueDate"`
}

func (s *Service) ListItems(ctx context.Context, listID, userID string) ([]model.ListItem, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	l, err := s.lists.GetForMember(ctx, listID, userID)
	if err != nil {
		return nil, internal("Failed to fetch list", err)
	}
	if l == nil {
		return nil, notFound("List not found or access denied")
	}

	items, err := s.lists.ListItems(ctx, listID)
	if err != nil {
		return nil, internal("Failed to fetch list items", err)
	}
	if items == nil {
		items = []model.ListItem{}
	}
	return items, nil
}

func (s *Service) CreateItem(ctx context.Context, listID, userID string, in ItemInput) (*model.ListItem, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, invalidInput("Text is required")
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, invalidInput("Priority must be LOW, MEDIUM or HIGH")
	}

	l, err := s.lists.GetForMember(ctx, listID, userID)
	if err != nil {
		return nil, internal("Failed to fetch list", err)
	}
	if l == nil {
		return nil, notFound("List not found or access denied")
	}

	item, err := s.lists.CreateItem(ctx, store.NewItem{
		ListID:      listID,
		Text:        text,
		Description: in.Description,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedByID: userID,
	}, s.now())
	if err != nil {
		return nil, internal("Failed to create list item", err)
	}
	s.notifier.Notify(l.HouseholdID, "list_item", "created", item.ID)
	return item, nil
}

// SetItemCompleted marks an item done or not done, recording who completed
// it and when.
func (s *Service) SetItemCompleted(ctx context.Context, itemID, userID string, completed bool) (*model.ListItem, error) {
	return s.UpdateItem(ctx, itemID, userID, ItemPatch{Completed: model.Some(completed)})
}

func (s *Service) UpdateItem(ctx context.Context, itemID, userID string, patch ItemPatch) (*model.ListItem, error) {
	if userID == "" {
		return nil, unauthenticated()
	}
	if patch.Text.Set {
		if patch.Text.Value == nil || strings.TrimSpace(*patch.Text.Value) == "" {
			return nil, invalidInput("Text cannot be empty")
		}
	}
	if patch.Completed.Set && patch.Completed.Value == nil {
		return nil, invalidInput("Completed must be true or false")
	}
	if patch.Priority.Set && patch.Priority.Value != nil && !patch.Priority.Value.Valid() {
		return nil, invalidInput("Priority must be LOW, MEDIUM or HIGH")
	}

	item, householdID, err := s.lists.GetItemForMember(ctx, itemID, userID)
	if err != nil {
		return nil, internal("Failed to fetch list item", err)
	}
	if item == nil {
		return nil, notFound("List item not found or access denied")
	}

	now := s.now()
	if patch.Text.Set {
		item.Text = strings.TrimSpace(*patch.Text.Value)
	}
	if patch.Description.Set {
		item.Description = patch.Description.Value
	}
	if patch.Priority.Set {
		item.Priority = patch.Priority.Value
	}
	if patch.DueDate.Set {
		item.DueDate = patch.DueDate.Value
	}
	if patch.Completed.Set {
		item.Completed = *patch.Completed.Value
		if item.Completed {
			uid := userID
			item.CompletedAt = &now
			item.CompletedByID = &uid
		} else {
			item.CompletedAt = nil
			item.CompletedByID = nil
		}
	}

	saved, err := s.lists.SaveItem(ctx, item, now)
	if err != nil {
		return nil, internal("Failed to update list item", err)
	}
	s.notifier.Notify(householdID, "list_item", "updated", saved.ID)
	return saved, nil
}

func (s *Service) DeleteItem(ctx context.Context, itemID, userID string) error {
	if userID == "" {
		return unauthenticated()
	}
	item, householdID, err := s.lists.GetItemForMember(ctx, itemID, userID)
	if err != nil {
		return internal("Failed to fetch list item", err)
	}
	if item == nil {
		return notFound("List item not found or access denied")
	}
	if err := s.lists.DeleteItem(ctx, itemID); err != nil {
		return internal("Failed to delete list item", err)
	}
	s.notifier.Notify(householdID, "list_item", "deleted", itemID)
	return nil
}
