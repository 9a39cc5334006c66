package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/nomnom/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// 23503 = foreign_key_violation
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// PostgresRecipesStorage — Postgres реализация RecipesStorage
type PostgresRecipesStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresRecipesStorage создаёт новый PostgresRecipesStorage
func NewPostgresRecipesStorage(pool *pgxpool.Pool) *PostgresRecipesStorage {
	return &PostgresRecipesStorage{pool: pool}
}

func (s *PostgresRecipesStorage) ListRecipes(ctx context.Context, filter storage.RecipeFilter) ([]storage.RecipeListItem, error) {
	// Первая картинка рецепта — подзапросом по минимальному id
	query := `
		SELECT r.id, r.name, r.category, r.description, r.time_minutes,
		       r.calories, r.video_url, r.created_at, r.updated_at,
		       (SELECT i.url FROM recipe_images i
		        WHERE i.recipe_id = r.id AND i.url IS NOT NULL
		        ORDER BY i.id ASC LIMIT 1) AS main_image_url
		FROM recipes r
		WHERE 1=1
	`

	args := []interface{}{}
	argNum := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND LOWER(r.category) = LOWER($%d)", argNum)
		args = append(args, filter.Category)
		argNum++
	}

	if filter.Query != "" {
		query += fmt.Sprintf(` AND (r.name ILIKE $%d OR r.category ILIKE $%d OR COALESCE(r.description, '') ILIKE $%d)`, argNum, argNum, argNum)
		args = append(args, "%"+filter.Query+"%")
		argNum++
	}

	query += " ORDER BY r.id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []storage.RecipeListItem{}
	for rows.Next() {
		var item storage.RecipeListItem
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Category,
			&item.Description,
			&item.TimeMinutes,
			&item.Calories,
			&item.VideoURL,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.MainImageURL,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *PostgresRecipesStorage) GetRecipe(ctx context.Context, id int64) (*storage.Recipe, []storage.RecipeImage, []storage.RecipeIngredient, []storage.RecipeStep, error) {
	query := `
		SELECT id, name, category, description, time_minutes, calories,
		       video_url, created_at, updated_at
		FROM recipes
		WHERE id = $1
	`

	var r storage.Recipe
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID,
		&r.Name,
		&r.Category,
		&r.Description,
		&r.TimeMinutes,
		&r.Calories,
		&r.VideoURL,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, nil, storage.ErrNotFound
		}
		return nil, nil, nil, nil, err
	}

	images, err := s.listImages(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ingredients, err := s.listIngredients(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	steps, err := s.listSteps(ctx, id)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return &r, images, ingredients, steps, nil
}

func (s *PostgresRecipesStorage) listImages(ctx context.Context, recipeID int64) ([]storage.RecipeImage, error) {
	query := `
		SELECT id, recipe_id, url, object_key, content_type, size_bytes, created_at
		FROM recipe_images
		WHERE recipe_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []storage.RecipeImage{}
	for rows.Next() {
		var img storage.RecipeImage
		err := rows.Scan(&img.ID, &img.RecipeID, &img.URL, &img.ObjectKey, &img.ContentType, &img.SizeBytes, &img.CreatedAt)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

func (s *PostgresRecipesStorage) listIngredients(ctx context.Context, recipeID int64) ([]storage.RecipeIngredient, error) {
	query := `
		SELECT id, recipe_id, text, position
		FROM recipe_ingredients
		WHERE recipe_id = $1
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ingredients := []storage.RecipeIngredient{}
	for rows.Next() {
		var ing storage.RecipeIngredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Text, &ing.Position); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}

	return ingredients, rows.Err()
}

func (s *PostgresRecipesStorage) listSteps(ctx context.Context, recipeID int64) ([]storage.RecipeStep, error) {
	query := `
		SELECT id, recipe_id, step_number, instruction
		FROM recipe_steps
		WHERE recipe_id = $1
		ORDER BY step_number ASC
	`

	rows, err := s.pool.Query(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []storage.RecipeStep{}
	for rows.Next() {
		var st storage.RecipeStep
		if err := rows.Scan(&st.ID, &st.RecipeID, &st.StepNumber, &st.Instruction); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}

	return steps, rows.Err()
}

func (s *PostgresRecipesStorage) CreateRecipe(ctx context.Context, upsert storage.RecipeUpsert) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO recipes (name, category, description, time_minutes, calories, video_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`

	name := ""
	if upsert.Name != nil {
		name = *upsert.Name
	}
	category := ""
	if upsert.Category != nil {
		category = *upsert.Category
	}

	var id int64
	err = tx.QueryRow(ctx, query,
		name,
		category,
		upsert.Description,
		upsert.TimeMinutes,
		upsert.Calories,
		upsert.VideoURL,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := replaceChildren(ctx, tx, id, upsert.Ingredients, upsert.Steps); err != nil {
		return 0, err
	}

	return id, tx.Commit(ctx)
}

func (s *PostgresRecipesStorage) UpdateRecipe(ctx context.Context, id int64, upsert storage.RecipeUpsert) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE recipes
		SET name = COALESCE($2, name),
		    category = COALESCE($3, category),
		    description = COALESCE($4, description),
		    time_minutes = COALESCE($5, time_minutes),
		    calories = COALESCE($6, calories),
		    video_url = COALESCE($7, video_url),
		    updated_at = $8
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		id,
		upsert.Name,
		upsert.Category,
		upsert.Description,
		upsert.TimeMinutes,
		upsert.Calories,
		upsert.VideoURL,
		time.Now(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	if err := replaceChildren(ctx, tx, id, upsert.Ingredients, upsert.Steps); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// replaceChildren перезаписывает ингредиенты/шаги рецепта; nil = не менять
func replaceChildren(ctx context.Context, tx pgx.Tx, recipeID int64, ingredients, steps []string) error {
	if ingredients != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
			return err
		}
		for i, text := range ingredients {
			_, err := tx.Exec(ctx,
				`INSERT INTO recipe_ingredients (recipe_id, text, position) VALUES ($1, $2, $3)`,
				recipeID, text, i+1,
			)
			if err != nil {
				return err
			}
		}
	}

	if steps != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_steps WHERE recipe_id = $1`, recipeID); err != nil {
			return err
		}
		for i, text := range steps {
			_, err := tx.Exec(ctx,
				`INSERT INTO recipe_steps (recipe_id, step_number, instruction) VALUES ($1, $2, $3)`,
				recipeID, i+1, text,
			)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *PostgresRecipesStorage) DeleteRecipe(ctx context.Context, id int64) error {
	// Дочерние таблицы удаляются каскадом (см. миграции)
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *PostgresRecipesStorage) AddRecipeImage(ctx context.Context, image *storage.RecipeImage) error {
	query := `
		INSERT INTO recipe_images (recipe_id, url, object_key, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	image.CreatedAt = time.Now()

	err := s.pool.QueryRow(ctx, query,
		image.RecipeID,
		image.URL,
		image.ObjectKey,
		image.ContentType,
		image.SizeBytes,
		image.CreatedAt,
	).Scan(&image.ID)

	if err != nil {
		// 23503 = foreign_key_violation (рецепта нет)
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return err
	}

	return nil
}

func (s *PostgresRecipesStorage) GetRecipeImage(ctx context.Context, recipeID, imageID int64) (*storage.RecipeImage, error) {
	query := `
		SELECT id, recipe_id, url, object_key, content_type, size_bytes, created_at
		FROM recipe_images
		WHERE id = $1 AND recipe_id = $2
	`

	var img storage.RecipeImage
	err := s.pool.QueryRow(ctx, query, imageID, recipeID).Scan(
		&img.ID,
		&img.RecipeID,
		&img.URL,
		&img.ObjectKey,
		&img.ContentType,
		&img.SizeBytes,
		&img.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return &img, nil
}

func (s *PostgresRecipesStorage) UpdateRecipeImageURL(ctx context.Context, imageID int64, url string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE recipe_images SET url = $2 WHERE id = $1`,
		imageID, url,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *PostgresRecipesStorage) DeleteRecipeImage(ctx context.Context, recipeID, imageID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM recipe_images WHERE id = $1 AND recipe_id = $2`,
		imageID, recipeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *PostgresRecipesStorage) GetImageBlob(ctx context.Context, imageID int64) ([]byte, string, error) {
	query := `
		SELECT data, content_type
		FROM recipe_image_blobs
		WHERE image_id = $1
	`

	var data []byte
	var contentType string
	err := s.pool.QueryRow(ctx, query, imageID).Scan(&data, &contentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", storage.ErrNotFound
		}
		return nil, "", err
	}

	return data, contentType, nil
}

func (s *PostgresRecipesStorage) PutImageBlob(ctx context.Context, imageID int64, data []byte, contentType string) error {
	query := `
		INSERT INTO recipe_image_blobs (image_id, data, content_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (image_id) DO UPDATE SET data = $2, content_type = $3
	`

	_, err := s.pool.Exec(ctx, query, imageID, data, contentType)
	return err
}
