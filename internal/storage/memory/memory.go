package memory

import (
	"context"

	"github.com/fdg312/nomnom/internal/storage"
)

// MemoryStorage — in-memory реализация Storage (dev/test режим без БД)
type MemoryStorage struct {
	users   *UsersMemoryStorage
	recipes *RecipesMemoryStorage
}

// New создаёт новый MemoryStorage
func New() *MemoryStorage {
	return &MemoryStorage{
		users:   NewUsersMemoryStorage(),
		recipes: NewRecipesMemoryStorage(),
	}
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// UsersStorage methods - delegate to embedded users storage

func (m *MemoryStorage) CreateUser(ctx context.Context, user *storage.User) error {
	return m.users.CreateUser(ctx, user)
}

func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return m.users.GetUserByEmail(ctx, email)
}

func (m *MemoryStorage) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	return m.users.GetUserByID(ctx, id)
}

// RecipesStorage methods - delegate to embedded recipes storage

func (m *MemoryStorage) ListRecipes(ctx context.Context, filter storage.RecipeFilter) ([]storage.RecipeListItem, error) {
	return m.recipes.ListRecipes(ctx, filter)
}

func (m *MemoryStorage) GetRecipe(ctx context.Context, id int64) (*storage.Recipe, []storage.RecipeImage, []storage.RecipeIngredient, []storage.RecipeStep, error) {
	return m.recipes.GetRecipe(ctx, id)
}

func (m *MemoryStorage) CreateRecipe(ctx context.Context, upsert storage.RecipeUpsert) (int64, error) {
	return m.recipes.CreateRecipe(ctx, upsert)
}

func (m *MemoryStorage) UpdateRecipe(ctx context.Context, id int64, upsert storage.RecipeUpsert) error {
	return m.recipes.UpdateRecipe(ctx, id, upsert)
}

func (m *MemoryStorage) DeleteRecipe(ctx context.Context, id int64) error {
	return m.recipes.DeleteRecipe(ctx, id)
}

func (m *MemoryStorage) AddRecipeImage(ctx context.Context, image *storage.RecipeImage) error {
	return m.recipes.AddRecipeImage(ctx, image)
}

func (m *MemoryStorage) GetRecipeImage(ctx context.Context, recipeID, imageID int64) (*storage.RecipeImage, error) {
	return m.recipes.GetRecipeImage(ctx, recipeID, imageID)
}

func (m *MemoryStorage) UpdateRecipeImageURL(ctx context.Context, imageID int64, url string) error {
	return m.recipes.UpdateRecipeImageURL(ctx, imageID, url)
}

func (m *MemoryStorage) DeleteRecipeImage(ctx context.Context, recipeID, imageID int64) error {
	return m.recipes.DeleteRecipeImage(ctx, recipeID, imageID)
}

func (m *MemoryStorage) GetImageBlob(ctx context.Context, imageID int64) ([]byte, string, error) {
	return m.recipes.GetImageBlob(ctx, imageID)
}

func (m *MemoryStorage) PutImageBlob(ctx context.Context, imageID int64, data []byte, contentType string) error {
	return m.recipes.PutImageBlob(ctx, imageID, data, contentType)
}
