package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nomnom/internal/storage"
)

// RecipesMemoryStorage — in-memory реализация RecipesStorage
type RecipesMemoryStorage struct {
	mu          sync.RWMutex
	nextID      int64
	nextChildID int64
	recipes     map[int64]storage.Recipe
	images      map[int64]storage.RecipeImage
	ingredients map[int64]storage.RecipeIngredient
	steps       map[int64]storage.RecipeStep
	blobs       map[int64]blobData // image bytes in local mode
}

type blobData struct {
	Data        []byte
	ContentType string
}

// NewRecipesMemoryStorage создаёт новый RecipesMemoryStorage
func NewRecipesMemoryStorage() *RecipesMemoryStorage {
	return &RecipesMemoryStorage{
		nextID:      1,
		nextChildID: 1,
		recipes:     make(map[int64]storage.Recipe),
		images:      make(map[int64]storage.RecipeImage),
		ingredients: make(map[int64]storage.RecipeIngredient),
		steps:       make(map[int64]storage.RecipeStep),
		blobs:       make(map[int64]blobData),
	}
}

func (s *RecipesMemoryStorage) ListRecipes(ctx context.Context, filter storage.RecipeFilter) ([]storage.RecipeListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []storage.RecipeListItem
	for _, r := range s.recipes {
		if filter.Category != "" && !strings.EqualFold(r.Category, filter.Category) {
			continue
		}

		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			matched := strings.Contains(strings.ToLower(r.Name), q) ||
				strings.Contains(strings.ToLower(r.Category), q)
			if !matched && r.Description != nil {
				matched = strings.Contains(strings.ToLower(*r.Description), q)
			}
			if !matched {
				continue
			}
		}

		items = append(items, storage.RecipeListItem{
			Recipe:       r,
			MainImageURL: s.mainImageURL(r.ID),
		})
	}

	// Новые рецепты первыми
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID > items[j].ID
	})

	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}

	return items, nil
}

// mainImageURL возвращает URL первого изображения рецепта (минимальный id);
// вызывается под блокировкой
func (s *RecipesMemoryStorage) mainImageURL(recipeID int64) *string {
	var best *storage.RecipeImage
	for id, img := range s.images {
		if img.RecipeID != recipeID || img.URL == nil {
			continue
		}
		if best == nil || id < best.ID {
			copied := img
			best = &copied
		}
	}

	if best == nil {
		return nil
	}

	return best.URL
}

func (s *RecipesMemoryStorage) GetRecipe(ctx context.Context, id int64) (*storage.Recipe, []storage.RecipeImage, []storage.RecipeIngredient, []storage.RecipeStep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, nil, nil, nil, storage.ErrNotFound
	}

	var images []storage.RecipeImage
	for _, img := range s.images {
		if img.RecipeID == id {
			images = append(images, img)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].ID < images[j].ID })

	var ingredients []storage.RecipeIngredient
	for _, ing := range s.ingredients {
		if ing.RecipeID == id {
			ingredients = append(ingredients, ing)
		}
	}
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].Position < ingredients[j].Position })

	var steps []storage.RecipeStep
	for _, st := range s.steps {
		if st.RecipeID == id {
			steps = append(steps, st)
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepNumber < steps[j].StepNumber })

	return &r, images, ingredients, steps, nil
}

func (s *RecipesMemoryStorage) CreateRecipe(ctx context.Context, upsert storage.RecipeUpsert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	r := storage.Recipe{
		ID:          s.nextID,
		Description: upsert.Description,
		TimeMinutes: upsert.TimeMinutes,
		Calories:    upsert.Calories,
		VideoURL:    upsert.VideoURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++

	if upsert.Name != nil {
		r.Name = *upsert.Name
	}
	if upsert.Category != nil {
		r.Category = *upsert.Category
	}

	s.recipes[r.ID] = r
	s.replaceChildren(r.ID, upsert.Ingredients, upsert.Steps)

	return r.ID, nil
}

func (s *RecipesMemoryStorage) UpdateRecipe(ctx context.Context, id int64, upsert storage.RecipeUpsert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.recipes[id]
	if !ok {
		return storage.ErrNotFound
	}

	if upsert.Name != nil {
		r.Name = *upsert.Name
	}
	if upsert.Category != nil {
		r.Category = *upsert.Category
	}
	if upsert.Description != nil {
		r.Description = upsert.Description
	}
	if upsert.TimeMinutes != nil {
		r.TimeMinutes = upsert.TimeMinutes
	}
	if upsert.Calories != nil {
		r.Calories = upsert.Calories
	}
	if upsert.VideoURL != nil {
		r.VideoURL = upsert.VideoURL
	}

	r.UpdatedAt = time.Now()
	s.recipes[id] = r
	s.replaceChildren(id, upsert.Ingredients, upsert.Steps)

	return nil
}

// replaceChildren перезаписывает ингредиенты/шаги рецепта; nil = не менять.
// Вызывается под блокировкой.
func (s *RecipesMemoryStorage) replaceChildren(recipeID int64, ingredients, steps []string) {
	if ingredients != nil {
		for id, ing := range s.ingredients {
			if ing.RecipeID == recipeID {
				delete(s.ingredients, id)
			}
		}
		for i, text := range ingredients {
			s.ingredients[s.nextChildID] = storage.RecipeIngredient{
				ID:       s.nextChildID,
				RecipeID: recipeID,
				Text:     text,
				Position: i + 1,
			}
			s.nextChildID++
		}
	}

	if steps != nil {
		for id, st := range s.steps {
			if st.RecipeID == recipeID {
				delete(s.steps, id)
			}
		}
		for i, text := range steps {
			s.steps[s.nextChildID] = storage.RecipeStep{
				ID:          s.nextChildID,
				RecipeID:    recipeID,
				StepNumber:  i + 1,
				Instruction: text,
			}
			s.nextChildID++
		}
	}
}

func (s *RecipesMemoryStorage) DeleteRecipe(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return storage.ErrNotFound
	}

	delete(s.recipes, id)
	for imgID, img := range s.images {
		if img.RecipeID == id {
			delete(s.images, imgID)
			delete(s.blobs, imgID)
		}
	}
	for ingID, ing := range s.ingredients {
		if ing.RecipeID == id {
			delete(s.ingredients, ingID)
		}
	}
	for stID, st := range s.steps {
		if st.RecipeID == id {
			delete(s.steps, stID)
		}
	}

	return nil
}

func (s *RecipesMemoryStorage) AddRecipeImage(ctx context.Context, image *storage.RecipeImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[image.RecipeID]; !ok {
		return storage.ErrNotFound
	}

	image.ID = s.nextChildID
	s.nextChildID++
	image.CreatedAt = time.Now()

	s.images[image.ID] = *image

	return nil
}

func (s *RecipesMemoryStorage) GetRecipeImage(ctx context.Context, recipeID, imageID int64) (*storage.RecipeImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[imageID]
	if !ok || img.RecipeID != recipeID {
		return nil, storage.ErrNotFound
	}

	return &img, nil
}

func (s *RecipesMemoryStorage) UpdateRecipeImageURL(ctx context.Context, imageID int64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[imageID]
	if !ok {
		return storage.ErrNotFound
	}

	img.URL = &url
	s.images[imageID] = img

	return nil
}

func (s *RecipesMemoryStorage) DeleteRecipeImage(ctx context.Context, recipeID, imageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.images[imageID]
	if !ok || img.RecipeID != recipeID {
		return storage.ErrNotFound
	}

	delete(s.images, imageID)
	delete(s.blobs, imageID)

	return nil
}

func (s *RecipesMemoryStorage) GetImageBlob(ctx context.Context, imageID int64) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[imageID]
	if !ok {
		return nil, "", storage.ErrNotFound
	}

	return blob.Data, blob.ContentType, nil
}

func (s *RecipesMemoryStorage) PutImageBlob(ctx context.Context, imageID int64, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[imageID] = blobData{
		Data:        data,
		ContentType: contentType,
	}

	return nil
}
