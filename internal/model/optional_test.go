package model

import (
	"encoding/json"
	"testing"
)

func TestOptionalDistinguishesAbsentNullAndValue(t *testing.T) {
	var patch struct {
		Description Optional[string]   `json:"description"`
		Priority    Optional[Priority] `json:"priority"`
		Text        Optional[string]   `json:"text"`
	}
	if err := json.Unmarshal([]byte(`{"description": null, "priority": "HIGH"}`), &patch); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !patch.Description.Set || patch.Description.Value != nil {
		t.Errorf("description = %+v, want set to null", patch.Description)
	}
	if !patch.Priority.Set || patch.Priority.Value == nil || *patch.Priority.Value != PriorityHigh {
		t.Errorf("priority = %+v, want HIGH", patch.Priority)
	}
	if patch.Text.Set {
		t.Errorf("text = %+v, want unset", patch.Text)
	}
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var patch struct {
		Completed Optional[bool] `json:"completed"`
	}
	if err := json.Unmarshal([]byte(`{"completed": "yes"}`), &patch); err == nil {
		t.Error("expected error for string in bool field")
	}
}

func TestPriorityValid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if Priority("URGENT").Valid() {
		t.Error("URGENT should be invalid")
	}
}
