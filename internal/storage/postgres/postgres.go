package postgres

import (
	"context"

	"github.com/fdg312/nomnom/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage — Postgres реализация Storage
type PostgresStorage struct {
	pool    *pgxpool.Pool
	users   *PostgresUsersStorage
	recipes *PostgresRecipesStorage
}

// New создаёт PostgresStorage и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:    pool,
		users:   NewPostgresUsersStorage(pool),
		recipes: NewPostgresRecipesStorage(pool),
	}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// UsersStorage methods - delegate to embedded users storage

func (p *PostgresStorage) CreateUser(ctx context.Context, user *storage.User) error {
	return p.users.CreateUser(ctx, user)
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	return p.users.GetUserByEmail(ctx, email)
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	return p.users.GetUserByID(ctx, id)
}

// RecipesStorage methods - delegate to embedded recipes storage

func (p *PostgresStorage) ListRecipes(ctx context.Context, filter storage.RecipeFilter) ([]storage.RecipeListItem, error) {
	return p.recipes.ListRecipes(ctx, filter)
}

func (p *PostgresStorage) GetRecipe(ctx context.Context, id int64) (*storage.Recipe, []storage.RecipeImage, []storage.RecipeIngredient, []storage.RecipeStep, error) {
	return p.recipes.GetRecipe(ctx, id)
}

func (p *PostgresStorage) CreateRecipe(ctx context.Context, upsert storage.RecipeUpsert) (int64, error) {
	return p.recipes.CreateRecipe(ctx, upsert)
}

func (p *PostgresStorage) UpdateRecipe(ctx context.Context, id int64, upsert storage.RecipeUpsert) error {
	return p.recipes.UpdateRecipe(ctx, id, upsert)
}

func (p *PostgresStorage) DeleteRecipe(ctx context.Context, id int64) error {
	return p.recipes.DeleteRecipe(ctx, id)
}

func (p *PostgresStorage) AddRecipeImage(ctx context.Context, image *storage.RecipeImage) error {
	return p.recipes.AddRecipeImage(ctx, image)
}

func (p *PostgresStorage) GetRecipeImage(ctx context.Context, recipeID, imageID int64) (*storage.RecipeImage, error) {
	return p.recipes.GetRecipeImage(ctx, recipeID, imageID)
}

func (p *PostgresStorage) UpdateRecipeImageURL(ctx context.Context, imageID int64, url string) error {
	return p.recipes.UpdateRecipeImageURL(ctx, imageID, url)
}

func (p *PostgresStorage) DeleteRecipeImage(ctx context.Context, recipeID, imageID int64) error {
	return p.recipes.DeleteRecipeImage(ctx, recipeID, imageID)
}

func (p *PostgresStorage) GetImageBlob(ctx context.Context, imageID int64) ([]byte, string, error) {
	return p.recipes.GetImageBlob(ctx, imageID)
}

func (p *PostgresStorage) PutImageBlob(ctx context.Context, imageID int64, data []byte, contentType string) error {
	return p.recipes.PutImageBlob(ctx, imageID, data, contentType)
}
