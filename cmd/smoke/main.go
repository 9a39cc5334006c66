package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 30 * time.Second}
	adminEmail string
	adminPass  string
	createdIDs = make(map[string]int64) // track created resources for cleanup
)

func main() {
	fmt.Println("=== NomNom E2E Smoke Test ===")
	fmt.Println()

	// Load config from env
	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	adminEmail = getEnv("SMOKE_ADMIN_EMAIL", fmt.Sprintf("smoke-%d@nomnom.dev", time.Now().Unix()))
	adminPass = getEnv("SMOKE_ADMIN_PASSWORD", "smoke-secret-123")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Admin Email: %s\n", adminEmail)
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Register", testRegister},
		{"Login", testLogin},
		{"Me", testMe},
		{"List Recipes", testListRecipes},
		{"Create Recipe", testCreateRecipe},
		{"Get Recipe", testGetRecipe},
		{"Update Recipe", testUpdateRecipe},
		{"Upload Image", testUploadImage},
		{"Download Image", testDownloadImage},
		{"Delete Image", testDeleteImage},
		{"Delete Recipe", testDeleteRecipe},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	resp, err := client.Get(apiBase + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// testRegister creates the smoke account. For write steps to pass, the server
// must list the smoke email in ADMIN_EMAILS.
func testRegister() error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, adminEmail, adminPass)
	resp, err := client.Post(apiBase+"/auth/register", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means the account already exists from a previous run, which is fine.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		return statusError(resp)
	}
	return nil
}

func testLogin() error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, adminEmail, adminPass)
	resp, err := client.Post(apiBase+"/auth/login", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Token string `json:"token"`
		User  struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Token == "" {
		return fmt.Errorf("empty token")
	}
	if result.User.Role != "admin" {
		fmt.Printf("(role=%s, write steps will fail unless %s is in ADMIN_EMAILS) ", result.User.Role, adminEmail)
	}

	token = result.Token
	return nil
}

func testMe() error {
	req, err := http.NewRequest("GET", apiBase+"/auth/me", nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Email == "" {
		return fmt.Errorf("empty email in /auth/me response")
	}
	return nil
}

func testListRecipes() error {
	resp, err := client.Get(apiBase + "/recipes")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var list []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func testCreateRecipe() error {
	body := `{
		"name": "Smoke Test Borscht",
		"category": "Soup",
		"description": "Created by the smoke test",
		"timeMinutes": 90,
		"calories": 250,
		"ingredients": ["2 beets", "1 onion", "water"],
		"steps": ["Chop everything", "Boil for an hour"]
	}`

	req, err := http.NewRequest("POST", apiBase+"/recipes", bytes.NewReader([]byte(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return statusError(resp)
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.ID <= 0 {
		return fmt.Errorf("invalid recipe id %d", result.ID)
	}

	createdIDs["recipe"] = result.ID
	return nil
}

func testGetRecipe() error {
	url := fmt.Sprintf("%s/recipes/%d", apiBase, createdIDs["recipe"])
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		RecipeID    int64  `json:"RecipeId"`
		Name        string `json:"Name"`
		Ingredients []struct {
			Ingredient string `json:"Ingredient"`
		} `json:"Ingredients"`
		Steps []struct {
			StepNumber  int    `json:"StepNumber"`
			Instruction string `json:"Instruction"`
		} `json:"Steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.Name != "Smoke Test Borscht" {
		return fmt.Errorf("unexpected name %q", result.Name)
	}
	if len(result.Ingredients) != 3 {
		return fmt.Errorf("expected 3 ingredients, got %d", len(result.Ingredients))
	}
	if len(result.Steps) != 2 || result.Steps[0].StepNumber != 1 {
		return fmt.Errorf("unexpected steps: %+v", result.Steps)
	}
	return nil
}

func testUpdateRecipe() error {
	url := fmt.Sprintf("%s/recipes/%d", apiBase, createdIDs["recipe"])
	body := `{"calories": 300}`

	req, err := http.NewRequest("PUT", url, bytes.NewReader([]byte(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("expected ok=true")
	}
	return nil
}

func testUploadImage() error {
	// Generate a minimal PNG image (1x1 pixel)
	pngData := []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, // width=1, height=1
		0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53,
		0xDE, 0x00, 0x00, 0x00, 0x0C, 0x49, 0x44, 0x41, // IDAT chunk
		0x54, 0x08, 0xD7, 0x63, 0xF8, 0xCF, 0xC0, 0x00,
		0x00, 0x03, 0x01, 0x01, 0x00, 0x18, 0xDD, 0x8D,
		0xB4, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, // IEND chunk
		0x44, 0xAE, 0x42, 0x60, 0x82,
	}

	// Create multipart body by hand, same shape the mobile client sends
	var b bytes.Buffer
	boundary := "----NomNomSmokeBoundary42"
	w := io.Writer(&b)

	fmt.Fprintf(w, "--%s\r\n", boundary)
	fmt.Fprintf(w, "Content-Disposition: form-data; name=\"file\"; filename=\"smoke.png\"\r\n")
	fmt.Fprintf(w, "Content-Type: image/png\r\n\r\n")
	w.Write(pngData)
	fmt.Fprintf(w, "\r\n--%s--\r\n", boundary)

	url := fmt.Sprintf("%s/recipes/%d/images", apiBase, createdIDs["recipe"])
	req, err := http.NewRequest("POST", url, &b)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", fmt.Sprintf("multipart/form-data; boundary=%s", boundary))
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return statusError(resp)
	}

	var result struct {
		ImageID  int64  `json:"ImageId"`
		ImageURL string `json:"ImageUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if result.ImageID <= 0 {
		return fmt.Errorf("invalid image id %d", result.ImageID)
	}
	if result.ImageURL == "" {
		return fmt.Errorf("empty image url")
	}

	createdIDs["image"] = result.ImageID
	return nil
}

func testDownloadImage() error {
	url := fmt.Sprintf("%s/recipes/%d/images/%d", apiBase, createdIDs["recipe"], createdIDs["image"])
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// S3 mode answers with a redirect, local mode serves the bytes.
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty image body")
	}
	return nil
}

func testDeleteImage() error {
	url := fmt.Sprintf("%s/recipes/%d/images/%d", apiBase, createdIDs["recipe"], createdIDs["image"])
	req, err := http.NewRequest("DELETE", url, nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func testDeleteRecipe() error {
	url := fmt.Sprintf("%s/recipes/%d", apiBase, createdIDs["recipe"])
	req, err := http.NewRequest("DELETE", url, nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
