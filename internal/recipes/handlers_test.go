package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/fdg312/nomnom/internal/storage/memory"
	"github.com/fdg312/nomnom/internal/userctx"
)

func newTestService() *Service {
	return NewService(memory.New(), nil, 10, "image/jpeg,image/png,image/webp", 8, "", false, 900)
}

func newTestMux(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recipes", h.HandleList)
	mux.HandleFunc("POST /recipes", h.HandleCreate)
	mux.HandleFunc("GET /recipes/{id}", h.HandleGet)
	mux.HandleFunc("PUT /recipes/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /recipes/{id}", h.HandleDelete)
	mux.HandleFunc("POST /recipes/{id}/images", h.HandleUploadImage)
	mux.HandleFunc("GET /recipes/{id}/images/{imageID}", h.HandleDownloadImage)
	mux.HandleFunc("DELETE /recipes/{id}/images/{imageID}", h.HandleDeleteImage)
	return mux
}

func adminCtx() context.Context {
	return userctx.WithUser(context.Background(), 1, "admin")
}

func doRequest(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func adminJSON(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(adminCtx())
	return doRequest(mux, req)
}

func createRecipe(t *testing.T, mux *http.ServeMux, body string) int64 {
	t.Helper()
	w := adminJSON(mux, http.MethodPost, "/recipes", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create recipe failed: %d %s", w.Code, w.Body.String())
	}
	var resp CreateRecipeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse create response: %v", err)
	}
	return resp.ID
}

func TestHandleListEmpty(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %q", w.Body.String())
	}
}

func TestHandleCreateRequiresAdmin(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))
	body := `{"name":"Pancakes","category":"Breakfast"}`

	t.Run("anonymous gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body))
		w := doRequest(mux, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("plain user gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(body))
		req = req.WithContext(userctx.WithUser(req.Context(), 2, "user"))
		w := doRequest(mux, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}

		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse error: %v", err)
		}
		if resp.Error.Message != "Admin only" {
			t.Fatalf("unexpected message %q", resp.Error.Message)
		}
	})
}

func TestHandleCreateValidation(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	w := adminJSON(mux, http.MethodPost, "/recipes", `{"name":"Pancakes"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without category, got %d", w.Code)
	}
}

func TestCreateAndGetRecipe(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	id := createRecipe(t, mux, `{
		"name":"Shakshuka",
		"category":"Breakfast",
		"description":"Eggs poached in tomato sauce",
		"timeMinutes":25,
		"calories":420,
		"videoUrl":"https://video.example.com/shakshuka",
		"ingredients":["4 eggs","2 tomatoes","1 onion"],
		"steps":["Soften the onion","Add tomatoes","Poach the eggs"]
	}`)

	w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes/1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Клиенты парсят PascalCase ключи
	raw := w.Body.String()
	for _, key := range []string{`"RecipeId"`, `"Name"`, `"Category"`, `"TimeMinutes"`, `"Calories"`, `"Ingredients"`, `"Steps"`, `"Instruction"`} {
		if !strings.Contains(raw, key) {
			t.Errorf("expected %s key in payload: %s", key, raw)
		}
	}

	var detail RecipeDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to parse detail: %v", err)
	}
	if detail.RecipeID != id || detail.Name != "Shakshuka" {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.Ingredients) != 3 || detail.Ingredients[0].Ingredient != "4 eggs" {
		t.Fatalf("unexpected ingredients %+v", detail.Ingredients)
	}
	if len(detail.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(detail.Steps))
	}
	for i, st := range detail.Steps {
		if st.StepNumber != i+1 {
			t.Fatalf("steps out of order: %+v", detail.Steps)
		}
	}
	if detail.Steps[2].Instruction != "Poach the eggs" {
		t.Fatalf("unexpected step %+v", detail.Steps[2])
	}
	if detail.VideoURL == nil || *detail.VideoURL != "https://video.example.com/shakshuka" {
		t.Fatalf("unexpected video url %+v", detail.VideoURL)
	}
}

func TestHandleGetNotFound(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes/99", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error: %v", err)
	}
	if resp.Error.Message != "Recipe not found" {
		t.Fatalf("unexpected message %q", resp.Error.Message)
	}
}

func TestHandleUpdatePartial(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	createRecipe(t, mux, `{"name":"Ramen","category":"Dinner","calories":550}`)

	w := adminJSON(mux, http.MethodPut, "/recipes/1", `{"calories":600}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected ok response, got %s", w.Body.String())
	}

	get := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes/1", nil))
	var detail RecipeDetail
	if err := json.Unmarshal(get.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to parse detail: %v", err)
	}
	if detail.Name != "Ramen" {
		t.Fatalf("name should be untouched, got %q", detail.Name)
	}
	if detail.Calories == nil || *detail.Calories != 600 {
		t.Fatalf("calories should be updated, got %+v", detail.Calories)
	}
}

func TestHandleDelete(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	createRecipe(t, mux, `{"name":"Ramen","category":"Dinner"}`)

	w := adminJSON(mux, http.MethodDelete, "/recipes/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	get := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes/1", nil))
	if get.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", get.Code)
	}

	again := adminJSON(mux, http.MethodDelete, "/recipes/1", "")
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on double delete, got %d", again.Code)
	}
}

func TestListFilters(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	createRecipe(t, mux, `{"name":"Pancakes","category":"Breakfast"}`)
	createRecipe(t, mux, `{"name":"Ramen","category":"Dinner","description":"Rich pork broth"}`)
	createRecipe(t, mux, `{"name":"Omelette","category":"Breakfast"}`)

	t.Run("newest first", func(t *testing.T) {
		w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes", nil))
		var items []RecipeSummary
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to parse list: %v", err)
		}
		if len(items) != 3 || items[0].Name != "Omelette" || items[2].Name != "Pancakes" {
			t.Fatalf("unexpected order %+v", items)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes?category=breakfast", nil))
		var items []RecipeSummary
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to parse list: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 breakfast recipes, got %+v", items)
		}
	})

	t.Run("query matches description", func(t *testing.T) {
		w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes?q=broth", nil))
		var items []RecipeSummary
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to parse list: %v", err)
		}
		if len(items) != 1 || items[0].Name != "Ramen" {
			t.Fatalf("unexpected query result %+v", items)
		}
	})

	t.Run("limit", func(t *testing.T) {
		w := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes?limit=1", nil))
		var items []RecipeSummary
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to parse list: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
	})
}

func multipartImage(t *testing.T, fieldName, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func TestImageUploadAndDownload(t *testing.T) {
	mux := newTestMux(NewHandlers(newTestService()))

	createRecipe(t, mux, `{"name":"Ramen","category":"Dinner"}`)

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	body, contentType := multipartImage(t, "file", "ramen.jpg", "image/jpeg", payload)

	req := httptest.NewRequest(http.MethodPost, "/recipes/1/images", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(adminCtx())
	w := doRequest(mux, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var dto RecipeImageDTO
	if err := json.Unmarshal(w.Body.Bytes(), &dto); err != nil {
		t.Fatalf("failed to parse image dto: %v", err)
	}
	if dto.ImageURL == "" || !strings.HasPrefix(dto.ImageURL, "/recipes/1/images/") {
		t.Fatalf("unexpected image url %q", dto.ImageURL)
	}

	t.Run("download serves bytes", func(t *testing.T) {
		dl := doRequest(mux, httptest.NewRequest(http.MethodGet, dto.ImageURL, nil))
		if dl.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", dl.Code, dl.Body.String())
		}
		if dl.Header().Get("Content-Type") != "image/jpeg" {
			t.Fatalf("unexpected content type %q", dl.Header().Get("Content-Type"))
		}
		got, _ := io.ReadAll(dl.Body)
		if !bytes.Equal(got, payload) {
			t.Fatal("downloaded bytes differ from upload")
		}
	})

	t.Run("list exposes main image", func(t *testing.T) {
		list := doRequest(mux, httptest.NewRequest(http.MethodGet, "/recipes", nil))
		var items []RecipeSummary
		if err := json.Unmarshal(list.Body.Bytes(), &items); err != nil {
			t.Fatalf("failed to parse list: %v", err)
		}
		if items[0].ImageURL == nil || *items[0].ImageURL != dto.ImageURL {
			t.Fatalf("expected main image %q, got %+v", dto.ImageURL, items[0].ImageURL)
		}
	})

	t.Run("delete image", func(t *testing.T) {
		del := adminJSON(mux, http.MethodDelete, dto.ImageURL, "")
		if del.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", del.Code)
		}
		dl := doRequest(mux, httptest.NewRequest(http.MethodGet, dto.ImageURL, nil))
		if dl.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", dl.Code)
		}
	})
}

func TestImageUploadValidation(t *testing.T) {
	service := NewService(memory.New(), nil, 1, "image/jpeg", 1, "", false, 900)
	mux := newTestMux(NewHandlers(service))

	createRecipe(t, mux, `{"name":"Ramen","category":"Dinner"}`)

	upload := func(contentType string, data []byte) *httptest.ResponseRecorder {
		body, formType := multipartImage(t, "file", "img", contentType, data)
		req := httptest.NewRequest(http.MethodPost, "/recipes/1/images", body)
		req.Header.Set("Content-Type", formType)
		req = req.WithContext(adminCtx())
		return doRequest(mux, req)
	}

	t.Run("unsupported mime", func(t *testing.T) {
		w := upload("application/pdf", []byte("%PDF-1.4"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "unsupported_mime") {
			t.Fatalf("expected unsupported_mime, got %s", w.Body.String())
		}
	})

	t.Run("file too large", func(t *testing.T) {
		w := upload("image/jpeg", bytes.Repeat([]byte{0xAB}, 2*1024*1024))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "file_too_large") {
			t.Fatalf("expected file_too_large, got %s", w.Body.String())
		}
	})

	t.Run("max images per recipe", func(t *testing.T) {
		first := upload("image/jpeg", []byte{0xFF, 0xD8})
		if first.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
		}
		second := upload("image/jpeg", []byte{0xFF, 0xD8})
		if second.Code != http.StatusBadRequest || !strings.Contains(second.Body.String(), "too_many_images") {
			t.Fatalf("expected too_many_images, got %d %s", second.Code, second.Body.String())
		}
	})

	t.Run("upload to missing recipe", func(t *testing.T) {
		body, formType := multipartImage(t, "file", "img", "image/jpeg", []byte{0xFF})
		req := httptest.NewRequest(http.MethodPost, "/recipes/42/images", body)
		req.Header.Set("Content-Type", formType)
		req = req.WithContext(adminCtx())
		w := doRequest(mux, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}
