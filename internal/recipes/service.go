package recipes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/fdg312/nomnom/internal/blob"
	"github.com/fdg312/nomnom/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrMissingFields   = errors.New("name and category required")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedMime = errors.New("unsupported mime type")
	ErrTooManyImages   = errors.New("max images per recipe exceeded")
)

// Service handles recipe catalog business logic
type Service struct {
	storage         storage.RecipesStorage
	blobStore       blob.Store
	localMode       bool   // true if no S3 configured
	publicBaseURL   string // S3 public base URL (if prefer_public_url mode)
	preferPublicURL bool
	presignTTL      int
	maxUploadMB     int
	allowedMimes    []string
	maxImages       int
}

// NewService creates a new recipes service
func NewService(
	recipesStorage storage.RecipesStorage,
	blobStore blob.Store,
	maxUploadMB int,
	allowedMimes string,
	maxImages int,
	publicBaseURL string,
	preferPublicURL bool,
	presignTTL int,
) *Service {
	localMode := (blobStore == nil)

	mimes := strings.Split(allowedMimes, ",")
	for i, m := range mimes {
		mimes[i] = strings.TrimSpace(m)
	}

	if presignTTL <= 0 {
		presignTTL = 900
	}

	return &Service{
		storage:         recipesStorage,
		blobStore:       blobStore,
		localMode:       localMode,
		publicBaseURL:   publicBaseURL,
		preferPublicURL: preferPublicURL,
		presignTTL:      presignTTL,
		maxUploadMB:     maxUploadMB,
		allowedMimes:    mimes,
		maxImages:       maxImages,
	}
}

// List returns catalog rows matching the filter, newest first
func (s *Service) List(ctx context.Context, category, query string, limit int) ([]RecipeSummary, error) {
	items, err := s.storage.ListRecipes(ctx, storage.RecipeFilter{
		Category: category,
		Query:    query,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]RecipeSummary, len(items))
	for i, item := range items {
		summaries[i] = RecipeSummary{
			RecipeID:    item.ID,
			Name:        item.Name,
			Category:    item.Category,
			Description: item.Description,
			TimeMinutes: item.TimeMinutes,
			Calories:    item.Calories,
			ImageURL:    item.MainImageURL,
		}
	}

	return summaries, nil
}

// Get returns a full recipe with images, ingredients and steps
func (s *Service) Get(ctx context.Context, id int64) (*RecipeDetail, error) {
	recipe, images, ingredients, steps, err := s.storage.GetRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	detail := &RecipeDetail{
		RecipeSummary: RecipeSummary{
			RecipeID:    recipe.ID,
			Name:        recipe.Name,
			Category:    recipe.Category,
			Description: recipe.Description,
			TimeMinutes: recipe.TimeMinutes,
			Calories:    recipe.Calories,
		},
		VideoURL:    recipe.VideoURL,
		Images:      make([]RecipeImageDTO, 0, len(images)),
		Ingredients: make([]RecipeIngredientDTO, 0, len(ingredients)),
		Steps:       make([]RecipeStepDTO, 0, len(steps)),
	}

	for _, img := range images {
		if img.URL == nil {
			continue
		}
		detail.Images = append(detail.Images, RecipeImageDTO{
			ImageID:  img.ID,
			ImageURL: *img.URL,
		})
	}
	if len(detail.Images) > 0 {
		detail.ImageURL = &detail.Images[0].ImageURL
	}

	for _, ing := range ingredients {
		detail.Ingredients = append(detail.Ingredients, RecipeIngredientDTO{
			IngredientID: ing.ID,
			Ingredient:   ing.Text,
		})
	}

	for _, st := range steps {
		detail.Steps = append(detail.Steps, RecipeStepDTO{
			StepID:      st.ID,
			StepNumber:  st.StepNumber,
			Instruction: st.Instruction,
		})
	}

	return detail, nil
}

// Create creates a recipe; name and category are required
func (s *Service) Create(ctx context.Context, req UpsertRecipeRequest) (int64, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" ||
		req.Category == nil || strings.TrimSpace(*req.Category) == "" {
		return 0, ErrMissingFields
	}

	return s.storage.CreateRecipe(ctx, toUpsert(req))
}

// Update applies non-nil fields to an existing recipe
func (s *Service) Update(ctx context.Context, id int64, req UpsertRecipeRequest) error {
	err := s.storage.UpdateRecipe(ctx, id, toUpsert(req))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrRecipeNotFound
	}
	return err
}

// Delete removes a recipe with its children and uploaded blobs
func (s *Service) Delete(ctx context.Context, id int64) error {
	if !s.localMode {
		// Снять блобы из S3 до удаления метаданных
		_, images, _, _, err := s.storage.GetRecipe(ctx, id)
		if err == nil {
			for _, img := range images {
				if img.ObjectKey != nil && *img.ObjectKey != "" {
					_ = s.blobStore.DeleteObject(ctx, *img.ObjectKey)
				}
			}
		}
	}

	err := s.storage.DeleteRecipe(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrRecipeNotFound
	}
	return err
}

// AddImage stores an uploaded image for a recipe and returns its DTO
func (s *Service) AddImage(ctx context.Context, recipeID int64, fileHeader *multipart.FileHeader) (*RecipeImageDTO, error) {
	_, images, _, _, err := s.storage.GetRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if len(images) >= s.maxImages {
		return nil, ErrTooManyImages
	}

	maxBytes := int64(s.maxUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return nil, ErrFileTooLarge
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !s.isAllowedMime(contentType) {
		return nil, ErrUnsupportedMime
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	image := &storage.RecipeImage{
		RecipeID:    recipeID,
		ContentType: &contentType,
		SizeBytes:   fileHeader.Size,
	}

	if s.localMode {
		if err := s.storage.AddRecipeImage(ctx, image); err != nil {
			return nil, err
		}
		if err := s.storage.PutImageBlob(ctx, image.ID, data, contentType); err != nil {
			_ = s.storage.DeleteRecipeImage(ctx, recipeID, image.ID)
			return nil, fmt.Errorf("failed to store blob: %w", err)
		}
	} else {
		objectKey := fmt.Sprintf("recipes/%d/%s", recipeID, uuid.New().String())
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentType); err != nil {
			return nil, fmt.Errorf("failed to upload to S3: %w", err)
		}

		image.ObjectKey = &objectKey
		if err := s.storage.AddRecipeImage(ctx, image); err != nil {
			// Rollback: delete from S3
			_ = s.blobStore.DeleteObject(ctx, objectKey)
			return nil, err
		}
	}

	url := s.imageURL(image)
	if err := s.storage.UpdateRecipeImageURL(ctx, image.ID, url); err != nil {
		return nil, err
	}

	return &RecipeImageDTO{ImageID: image.ID, ImageURL: url}, nil
}

// imageURL возвращает постоянный URL изображения: публичный S3 URL, когда он
// предпочтителен, иначе путь отдачи на нашем API
func (s *Service) imageURL(image *storage.RecipeImage) string {
	if !s.localMode && s.preferPublicURL && s.publicBaseURL != "" && image.ObjectKey != nil {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *image.ObjectKey
	}
	return fmt.Sprintf("/recipes/%d/images/%d", image.RecipeID, image.ID)
}

// DeleteImage removes an image with its blob
func (s *Service) DeleteImage(ctx context.Context, recipeID, imageID int64) error {
	image, err := s.storage.GetRecipeImage(ctx, recipeID, imageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrImageNotFound
		}
		return err
	}

	if !s.localMode && image.ObjectKey != nil && *image.ObjectKey != "" {
		if err := s.blobStore.DeleteObject(ctx, *image.ObjectKey); err != nil {
			// Метаданные всё равно удаляем
		}
	}

	return s.storage.DeleteRecipeImage(ctx, recipeID, imageID)
}

// GetImageDownloadURL returns download URL and whether to redirect
// (true for S3, false for local serving)
func (s *Service) GetImageDownloadURL(ctx context.Context, recipeID, imageID int64) (string, bool, error) {
	image, err := s.storage.GetRecipeImage(ctx, recipeID, imageID)
	if err != nil {
		return "", false, ErrImageNotFound
	}

	// Local mode or external URL without object key: serve directly
	if s.localMode || image.ObjectKey == nil || *image.ObjectKey == "" {
		return "", false, nil
	}

	if s.preferPublicURL && s.publicBaseURL != "" {
		publicURL := strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *image.ObjectKey
		return publicURL, true, nil
	}

	presignedURL, err := s.blobStore.PresignGet(ctx, *image.ObjectKey, s.presignTTL)
	if err != nil {
		return "", false, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedURL, true, nil
}

// GetImageData retrieves image bytes (local mode)
func (s *Service) GetImageData(ctx context.Context, recipeID, imageID int64) ([]byte, string, error) {
	image, err := s.storage.GetRecipeImage(ctx, recipeID, imageID)
	if err != nil {
		return nil, "", ErrImageNotFound
	}

	if s.localMode || image.ObjectKey == nil || *image.ObjectKey == "" {
		data, contentType, err := s.storage.GetImageBlob(ctx, imageID)
		if err != nil {
			return nil, "", ErrImageNotFound
		}
		return data, contentType, nil
	}

	data, err := s.blobStore.GetObject(ctx, *image.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object from S3: %w", err)
	}

	contentType := "application/octet-stream"
	if image.ContentType != nil {
		contentType = *image.ContentType
	}

	return data, contentType, nil
}

func toUpsert(req UpsertRecipeRequest) storage.RecipeUpsert {
	return storage.RecipeUpsert{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		Calories:    req.Calories,
		VideoURL:    req.VideoURL,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
	}
}

func (s *Service) isAllowedMime(contentType string) bool {
	for _, allowed := range s.allowedMimes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}
