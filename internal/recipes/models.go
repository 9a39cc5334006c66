package recipes

// Каталог отдаётся в PascalCase — так его исторически читают мобильные
// клиенты (см. catalog normalizer, который принимает оба регистра).

// RecipeSummary — строка списка рецептов
type RecipeSummary struct {
	RecipeID    int64   `json:"RecipeId"`
	Name        string  `json:"Name"`
	Category    string  `json:"Category"`
	Description *string `json:"Description,omitempty"`
	TimeMinutes *int    `json:"TimeMinutes,omitempty"`
	Calories    *int    `json:"Calories,omitempty"`
	ImageURL    *string `json:"ImageUrl,omitempty"`
}

// RecipeImageDTO — изображение в деталях рецепта
type RecipeImageDTO struct {
	ImageID  int64  `json:"ImageId"`
	ImageURL string `json:"ImageUrl"`
}

// RecipeIngredientDTO — ингредиент в деталях рецепта
type RecipeIngredientDTO struct {
	IngredientID int64  `json:"IngredientId"`
	Ingredient   string `json:"Ingredient"`
}

// RecipeStepDTO — шаг приготовления в деталях рецепта
type RecipeStepDTO struct {
	StepID      int64  `json:"StepId"`
	StepNumber  int    `json:"StepNumber"`
	Instruction string `json:"Instruction"`
}

// RecipeDetail — полный рецепт
type RecipeDetail struct {
	RecipeSummary
	VideoURL    *string               `json:"VideoUrl,omitempty"`
	Images      []RecipeImageDTO      `json:"Images"`
	Ingredients []RecipeIngredientDTO `json:"Ingredients"`
	Steps       []RecipeStepDTO       `json:"Steps"`
}

// UpsertRecipeRequest — тело POST/PUT /recipes. Nil поля при обновлении
// оставляют прежнее значение.
type UpsertRecipeRequest struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	TimeMinutes *int     `json:"timeMinutes"`
	Calories    *int     `json:"calories"`
	VideoURL    *string  `json:"videoUrl"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// CreateRecipeResponse — ответ POST /recipes
type CreateRecipeResponse struct {
	ID int64 `json:"id"`
}

// OKResponse — ответ PUT/DELETE
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
