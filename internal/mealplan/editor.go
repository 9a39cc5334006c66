package mealplan

// Editor operations. Each returns a new Plan value and never mutates its
// input; days other than the target share backing storage with the original.

func clonePlan(p Plan) Plan {
	out := make(Plan, len(p)+1)
	for iso, day := range p {
		out[iso] = day
	}
	return out
}

// AddMeal appends recipe to the slot's list for dateISO. Adding a recipe whose
// id already exists in that slot is a no-op (idempotent add), as is an unknown
// slot, an empty date, or a non-positive recipe id.
func AddMeal(p Plan, dateISO string, slot Slot, recipe RecipeRef) Plan {
	if dateISO == "" || !ValidSlot(slot) || recipe.ID <= 0 {
		return p
	}

	day := NormalizeDay(p[dateISO])
	for _, existing := range day[slot] {
		if existing.ID == recipe.ID {
			return p
		}
	}
	day[slot] = append(day[slot], recipe)

	out := clonePlan(p)
	out[dateISO] = day
	return out
}

// RemoveMeal removes every entry with the given id from the slot's list
// (at most one exists under the add invariant). Unknown ids leave the plan
// unchanged.
func RemoveMeal(p Plan, dateISO string, slot Slot, recipeID int64) Plan {
	if dateISO == "" || !ValidSlot(slot) {
		return p
	}

	day := NormalizeDay(p[dateISO])
	list := day[slot]
	kept := make([]RecipeRef, 0, len(list))
	for _, r := range list {
		if r.ID != recipeID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(list) {
		return p
	}
	day[slot] = kept

	out := clonePlan(p)
	out[dateISO] = day
	return out
}

// ClearSlot empties the slot's list for dateISO. Other slots and dates are
// untouched.
func ClearSlot(p Plan, dateISO string, slot Slot) Plan {
	if dateISO == "" || !ValidSlot(slot) {
		return p
	}

	day := NormalizeDay(p[dateISO])
	day[slot] = []RecipeRef{}

	out := clonePlan(p)
	out[dateISO] = day
	return out
}

// HasAnyPlan reports whether at least one slot on dateISO has at least one
// entry. Used for calendar plan-indicator dots.
func HasAnyPlan(p Plan, dateISO string) bool {
	day, ok := p[dateISO]
	if !ok {
		return false
	}
	for _, slot := range Slots() {
		if len(day[slot]) > 0 {
			return true
		}
	}
	return false
}
