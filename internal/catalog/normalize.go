package catalog

import (
	"encoding/json"
	"strconv"

	"github.com/fdg312/nomnom/internal/mealplan"
)

// Alias chains for upstream recipe fields, in lookup priority order. Older
// API builds emitted PascalCase columns straight from the database; newer
// ones camelCase. The first present key wins even when a later alias would
// also match.
var (
	idAliases          = []string{"RecipeId", "recipeId", "Id", "id"}
	titleAliases       = []string{"Name", "name", "Title", "title"}
	categoryAliases    = []string{"Category", "category"}
	descriptionAliases = []string{"Description", "description"}
	timeAliases        = []string{"TimeMinutes", "timeMinutes"}
	caloriesAliases    = []string{"Calories", "calories"}
	imageAliases       = []string{"ImageUrl", "imageUrl", "MainImageUrl", "mainImageUrl"}
	videoAliases       = []string{"VideoUrl", "videoUrl"}
)

const (
	defaultTitle    = "Untitled"
	defaultCategory = "Other"
)

// normalizeRecipe maps one raw list element to a RecipeRef. Elements that are
// not JSON objects, or whose id cannot be read as a number, fall back to the
// element's index so the list stays renderable.
func normalizeRecipe(element json.RawMessage, idx int) mealplan.RecipeRef {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(element, &fields); err != nil {
		return mealplan.RecipeRef{
			ID:       int64(idx),
			Title:    defaultTitle,
			Category: defaultCategory,
		}
	}

	id, ok := pickInt64(fields, idAliases)
	if !ok {
		id = int64(idx)
	}

	return mealplan.RecipeRef{
		ID:          id,
		Title:       pickString(fields, titleAliases, defaultTitle),
		Category:    pickString(fields, categoryAliases, defaultCategory),
		Description: pickString(fields, descriptionAliases, ""),
		TimeMinutes: pickOptionalInt(fields, timeAliases),
		Calories:    pickOptionalInt(fields, caloriesAliases),
		ImageURL:    pickString(fields, imageAliases, ""),
	}
}

func normalizeDetail(body []byte, fallbackID int64) Detail {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Detail{RecipeRef: mealplan.RecipeRef{
			ID:       fallbackID,
			Title:    defaultTitle,
			Category: defaultCategory,
		}}
	}

	id, ok := pickInt64(fields, idAliases)
	if !ok {
		id = fallbackID
	}

	return Detail{
		RecipeRef: mealplan.RecipeRef{
			ID:          id,
			Title:       pickString(fields, titleAliases, defaultTitle),
			Category:    pickString(fields, categoryAliases, defaultCategory),
			Description: pickString(fields, descriptionAliases, ""),
			TimeMinutes: pickOptionalInt(fields, timeAliases),
			Calories:    pickOptionalInt(fields, caloriesAliases),
			ImageURL:    pickString(fields, imageAliases, ""),
		},
		VideoURL:    pickString(fields, videoAliases, ""),
		ImageURLs:   pickStringList(fields, []string{"Images", "images"}, imageAliases),
		Ingredients: pickStringList(fields, []string{"Ingredients", "ingredients"}, []string{"Ingredient", "ingredient", "Name", "name"}),
		Steps:       pickStringList(fields, []string{"Steps", "steps"}, []string{"Instruction", "instruction", "StepText", "stepText", "Text", "text"}),
	}
}

// pickString returns the first alias present as a JSON string. Numbers are
// stringified the way the old client coerced them; other types fall through
// to the default.
func pickString(fields map[string]json.RawMessage, aliases []string, def string) string {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		return def
	}
	return def
}

// pickInt64 reads the first present alias as a number, accepting numeric
// strings the way Number() did upstream.
func pickInt64(fields map[string]json.RawMessage, aliases []string) (int64, bool) {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return int64(n), true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if parsed, perr := strconv.ParseInt(s, 10, 64); perr == nil {
				return parsed, true
			}
		}
		return 0, false
	}
	return 0, false
}

// pickOptionalInt keeps strictly-numeric values only; anything else means the
// field is absent.
func pickOptionalInt(fields map[string]json.RawMessage, aliases []string) *int {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			v := int(n)
			return &v
		}
	}
	return nil
}

// pickStringList reads an array field whose elements are either strings or
// objects carrying one of elementAliases.
func pickStringList(fields map[string]json.RawMessage, aliases, elementAliases []string) []string {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var elements []json.RawMessage
		if err := json.Unmarshal(raw, &elements); err != nil {
			return nil
		}
		out := make([]string, 0, len(elements))
		for _, el := range elements {
			var s string
			if err := json.Unmarshal(el, &s); err == nil {
				out = append(out, s)
				continue
			}
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(el, &obj); err == nil {
				if v := pickString(obj, elementAliases, ""); v != "" {
					out = append(out, v)
				}
			}
		}
		return out
	}
	return nil
}
