package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User — зарегистрированный аккаунт приложения
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string // "user" или "admin"
	FullName     *string
	CreatedAt    time.Time
}

// UsersStorage — интерфейс для работы с аккаунтами
type UsersStorage interface {
	// CreateUser создаёт аккаунт; возвращает ErrEmailTaken при дубликате email
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail возвращает аккаунт по email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID возвращает аккаунт по id
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// Recipe — рецепт каталога
type Recipe struct {
	ID          int64
	Name        string
	Category    string
	Description *string
	TimeMinutes *int
	Calories    *int
	VideoURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeImage — изображение рецепта. ObjectKey указывает на S3 (nil в local
// режиме, когда байты лежат в хранилище).
type RecipeImage struct {
	ID          int64
	RecipeID    int64
	URL         *string // внешний URL, если изображение не загружено к нам
	ObjectKey   *string
	ContentType *string
	SizeBytes   int64
	CreatedAt   time.Time
}

// RecipeIngredient — ингредиент рецепта
type RecipeIngredient struct {
	ID       int64
	RecipeID int64
	Text     string
	Position int
}

// RecipeStep — шаг приготовления
type RecipeStep struct {
	ID          int64
	RecipeID    int64
	StepNumber  int
	Instruction string
}

// RecipeUpsert — входные данные для создания/обновления рецепта. Nil поля при
// обновлении оставляют прежнее значение.
type RecipeUpsert struct {
	Name        *string
	Category    *string
	Description *string
	TimeMinutes *int
	Calories    *int
	VideoURL    *string
	Ingredients []string // nil = не менять
	Steps       []string // nil = не менять
}

// RecipeListItem — строка списка рецептов: рецепт плюс URL первой картинки.
type RecipeListItem struct {
	Recipe
	MainImageURL *string
}

// RecipeFilter — фильтры списка рецептов
type RecipeFilter struct {
	Category string
	Query    string
	Limit    int
}

// RecipesStorage — интерфейс для работы с каталогом рецептов
type RecipesStorage interface {
	// ListRecipes возвращает рецепты по фильтру, новые первыми
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]RecipeListItem, error)

	// GetRecipe возвращает рецепт с ингредиентами, шагами и изображениями
	GetRecipe(ctx context.Context, id int64) (*Recipe, []RecipeImage, []RecipeIngredient, []RecipeStep, error)

	// CreateRecipe создаёт рецепт и возвращает его id
	CreateRecipe(ctx context.Context, upsert RecipeUpsert) (int64, error)

	// UpdateRecipe обновляет ненулевые поля рецепта
	UpdateRecipe(ctx context.Context, id int64, upsert RecipeUpsert) error

	// DeleteRecipe удаляет рецепт вместе с дочерними записями
	DeleteRecipe(ctx context.Context, id int64) error

	// AddRecipeImage добавляет метаданные изображения
	AddRecipeImage(ctx context.Context, image *RecipeImage) error

	// GetRecipeImage возвращает метаданные изображения рецепта
	GetRecipeImage(ctx context.Context, recipeID, imageID int64) (*RecipeImage, error)

	// UpdateRecipeImageURL проставляет URL изображения (известен после вставки)
	UpdateRecipeImageURL(ctx context.Context, imageID int64, url string) error

	// DeleteRecipeImage удаляет метаданные изображения
	DeleteRecipeImage(ctx context.Context, recipeID, imageID int64) error

	// GetImageBlob возвращает байты изображения (local режим)
	GetImageBlob(ctx context.Context, imageID int64) ([]byte, string, error)

	// PutImageBlob сохраняет байты изображения (local режим)
	PutImageBlob(ctx context.Context, imageID int64, data []byte, contentType string) error
}

// Storage объединяет все хранилища приложения
type Storage interface {
	UsersStorage
	RecipesStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}
