package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListNormalizesMixedCasing(t *testing.T) {
	payload := `[
		{"RecipeId": 10, "Name": "Shakshuka", "Category": "Breakfast", "Description": "Eggs in sauce", "TimeMinutes": 25, "Calories": 420, "ImageUrl": "https://img/10.jpg"},
		{"recipeId": 11, "title": "Ramen", "category": "Dinner", "timeMinutes": 40, "mainImageUrl": "https://img/11.jpg"},
		{"Id": 12},
		{}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	got, err := c.List(context.Background(), "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("want 4 recipes, got %d", len(got))
	}

	first := got[0]
	if first.ID != 10 || first.Title != "Shakshuka" || first.Category != "Breakfast" {
		t.Fatalf("pascal-case element wrong: %+v", first)
	}
	if first.TimeMinutes == nil || *first.TimeMinutes != 25 {
		t.Fatalf("TimeMinutes wrong: %v", first.TimeMinutes)
	}
	if first.Calories == nil || *first.Calories != 420 {
		t.Fatalf("Calories wrong: %v", first.Calories)
	}

	second := got[1]
	if second.ID != 11 || second.Title != "Ramen" || second.ImageURL != "https://img/11.jpg" {
		t.Fatalf("camel-case element wrong: %+v", second)
	}
	if second.Calories != nil {
		t.Fatalf("absent calories should be nil, got %v", *second.Calories)
	}

	third := got[2]
	if third.ID != 12 || third.Title != "Untitled" || third.Category != "Other" || third.Description != "" {
		t.Fatalf("defaults wrong: %+v", third)
	}

	// Element with no id aliases takes its index.
	if got[3].ID != 3 {
		t.Fatalf("missing id should fall back to index 3, got %d", got[3].ID)
	}
}

func TestListAliasPriority(t *testing.T) {
	// Both aliases present: the first in the chain wins.
	payload := `[{"RecipeId": 1, "id": 99, "Name": "Real", "title": "Shadow"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, 0).List(context.Background(), "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got[0].ID != 1 {
		t.Fatalf("RecipeId should win over id, got %d", got[0].ID)
	}
	if got[0].Title != "Real" {
		t.Fatalf("Name should win over title, got %q", got[0].Title)
	}
}

func TestListNonArrayPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, 0).List(context.Background(), "", "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("non-array payload should normalize to empty, got %d", len(got))
	}
}

func TestListForwardsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "Dinner" {
			t.Errorf("category = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "noodle" {
			t.Errorf("q = %q", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 0).List(context.Background(), "Dinner", "noodle"); err != nil {
		t.Fatalf("List: %v", err)
	}
}

func TestListServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, 0).List(context.Background(), "", ""); err == nil {
		t.Fatal("want error on 500")
	}
}

func TestListTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.List(context.Background(), "", "")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
}

func TestGetDetail(t *testing.T) {
	payload := `{
		"RecipeId": 5,
		"Name": "Pho",
		"Category": "Dinner",
		"Description": "Broth",
		"VideoUrl": "https://video/5",
		"Images": [{"ImageUrl": "https://img/a.jpg"}, {"ImageUrl": "https://img/b.jpg"}],
		"Ingredients": [{"Ingredient": "Noodles"}, {"Ingredient": "Beef"}],
		"Steps": [{"StepText": "Simmer broth"}, {"StepText": "Assemble"}]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/5" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, 0).Get(context.Background(), 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.ID != 5 || d.Title != "Pho" || d.VideoURL != "https://video/5" {
		t.Fatalf("detail wrong: %+v", d)
	}
	if len(d.ImageURLs) != 2 || d.ImageURLs[1] != "https://img/b.jpg" {
		t.Fatalf("images wrong: %v", d.ImageURLs)
	}
	if len(d.Ingredients) != 2 || d.Ingredients[0] != "Noodles" {
		t.Fatalf("ingredients wrong: %v", d.Ingredients)
	}
	if len(d.Steps) != 2 || d.Steps[1] != "Assemble" {
		t.Fatalf("steps wrong: %v", d.Steps)
	}
}

func TestGetNumericStringID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RecipeId": "7", "Name": "Tacos"}`))
	}))
	defer srv.Close()

	d, err := NewClient(srv.URL, 0).Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.ID != 7 {
		t.Fatalf("numeric string id should coerce, got %d", d.ID)
	}
}
