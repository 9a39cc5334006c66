package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fdg312/nomnom/internal/userctx"
)

// Handlers handles HTTP requests for the recipe catalog
type Handlers struct {
	service *Service
}

// NewHandlers creates new handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleList handles GET /recipes
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	summaries, err := h.service.List(r.Context(), category, query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// HandleGet handles GET /recipes/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(detail)
}

// HandleCreate handles POST /recipes (admin)
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req UpsertRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	id, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			writeError(w, http.StatusBadRequest, "invalid_request", "Name and category required")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateRecipeResponse{ID: id})
}

// HandleUpdate handles PUT /recipes/{id} (admin)
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req UpsertRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.service.Update(r.Context(), id, req); err != nil {
		if errors.Is(err, ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeOK(w)
}

// HandleDelete handles DELETE /recipes/{id} (admin)
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeOK(w)
}

// HandleUploadImage handles POST /recipes/{id}/images (admin, multipart)
func (h *Handlers) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	// Parse multipart form (max 32 MB in memory)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_file", "File is required")
		return
	}
	file.Close() // Close immediately, service will reopen

	dto, err := h.service.AddImage(r.Context(), id, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, ErrRecipeNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		case errors.Is(err, ErrFileTooLarge):
			writeError(w, http.StatusBadRequest, "file_too_large", fmt.Sprintf("File exceeds maximum size of %d MB", h.service.maxUploadMB))
		case errors.Is(err, ErrUnsupportedMime):
			writeError(w, http.StatusBadRequest, "unsupported_mime", "File type not supported")
		case errors.Is(err, ErrTooManyImages):
			writeError(w, http.StatusBadRequest, "too_many_images", fmt.Sprintf("Maximum %d images per recipe", h.service.maxImages))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dto)
}

// HandleDownloadImage handles GET /recipes/{id}/images/{imageID}
func (h *Handlers) HandleDownloadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(w, r, "imageID")
	if !ok {
		return
	}

	downloadURL, isRedirect, err := h.service.GetImageDownloadURL(r.Context(), id, imageID)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	if isRedirect {
		http.Redirect(w, r, downloadURL, http.StatusFound)
		return
	}

	data, contentType, err := h.service.GetImageData(r.Context(), id, imageID)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// HandleDeleteImage handles DELETE /recipes/{id}/images/{imageID} (admin)
func (h *Handlers) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	imageID, ok := parseID(w, r, "imageID")
	if !ok {
		return
	}

	if err := h.service.DeleteImage(r.Context(), id, imageID); err != nil {
		if errors.Is(err, ErrImageNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	writeOK(w)
}

func parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// requireAdmin пишет 401/403 и возвращает false, если запрос не от админа
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := userctx.GetUserID(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return false
	}
	if !userctx.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden", "Admin only")
		return false
	}
	return true
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(OKResponse{OK: true})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
