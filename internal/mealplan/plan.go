// Package mealplan holds the locally persisted meal plan model: four fixed
// meal slots per calendar day, each holding an ordered list of recipe
// snapshots. All editing operations are pure value transforms; persistence is
// the caller's responsibility.
package mealplan

import "encoding/json"

// Slot is one of the four fixed daily meal slots. Order is significant for
// display only.
type Slot string

const (
	SlotBreakfast Slot = "Breakfast"
	SlotLunch     Slot = "Lunch"
	SlotSnacks    Slot = "Snacks"
	SlotDinner    Slot = "Dinner"
)

// Slots returns the fixed display order of meal slots.
func Slots() []Slot {
	return []Slot{SlotBreakfast, SlotLunch, SlotSnacks, SlotDinner}
}

// ValidSlot reports whether s is one of the four known slots.
func ValidSlot(s Slot) bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotSnacks, SlotDinner:
		return true
	}
	return false
}

// RecipeRef is the snapshot of a recipe stored inside a plan. It is owned by
// copy: later catalog edits do not retroactively change placed entries.
type RecipeRef struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	TimeMinutes *int   `json:"timeMinutes,omitempty"`
	Calories    *int   `json:"calories,omitempty"`
}

// DayPlan maps each slot to its ordered recipe list. A normalized DayPlan has
// exactly the four slot keys, each non-nil.
type DayPlan map[Slot][]RecipeRef

// Plan maps ISO dates (YYYY-MM-DD) to day plans. Missing dates are implicitly
// an all-empty day.
type Plan map[string]DayPlan

// EmptyDay returns a normalized all-empty day plan.
func EmptyDay() DayPlan {
	return DayPlan{
		SlotBreakfast: []RecipeRef{},
		SlotLunch:     []RecipeRef{},
		SlotSnacks:    []RecipeRef{},
		SlotDinner:    []RecipeRef{},
	}
}

// NormalizeDay repairs a day plan so it satisfies the DayPlan invariant:
// all four slots present with non-nil lists, insertion order preserved.
// It always returns a fresh value; already-normalized input round-trips
// unchanged in content.
func NormalizeDay(d DayPlan) DayPlan {
	out := EmptyDay()
	if d == nil {
		return out
	}
	for _, slot := range Slots() {
		if list := d[slot]; len(list) > 0 {
			out[slot] = append([]RecipeRef(nil), list...)
		}
	}
	return out
}

// NormalizeRawDay repairs one persisted day record of unknown shape. For each
// slot: an array keeps its decodable, non-null elements in original order;
// anything else (missing, null, wrong type) becomes an empty list. Total over
// any raw input.
func NormalizeRawDay(raw json.RawMessage) DayPlan {
	out := EmptyDay()

	var bySlot map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bySlot); err != nil {
		return out
	}

	for _, slot := range Slots() {
		var elems []json.RawMessage
		if err := json.Unmarshal(bySlot[string(slot)], &elems); err != nil {
			continue
		}
		list := make([]RecipeRef, 0, len(elems))
		for _, e := range elems {
			if string(e) == "null" {
				continue
			}
			var ref RecipeRef
			if err := json.Unmarshal(e, &ref); err != nil {
				continue
			}
			list = append(list, ref)
		}
		out[slot] = list
	}
	return out
}

// DecodePlan parses a persisted plan record, repairing every day entry via
// NormalizeRawDay. Only a malformed top-level record returns an error; callers
// treat that as an empty plan.
func DecodePlan(data []byte) (Plan, error) {
	var byDate map[string]json.RawMessage
	if err := json.Unmarshal(data, &byDate); err != nil {
		return nil, err
	}

	plan := make(Plan, len(byDate))
	for iso, raw := range byDate {
		plan[iso] = NormalizeRawDay(raw)
	}
	return plan, nil
}

// EncodePlan serializes a plan for persistence.
func EncodePlan(p Plan) ([]byte, error) {
	if p == nil {
		p = Plan{}
	}
	return json.Marshal(p)
}
