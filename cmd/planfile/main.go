// Command planfile inspects and exports the locally persisted meal plan.
// It works against the same SQLite file the app writes, so it is handy for
// debugging a device dump or producing a printable week.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/nomnom/internal/config"
	"github.com/fdg312/nomnom/internal/dategrid"
	"github.com/fdg312/nomnom/internal/kvstore"
	"github.com/fdg312/nomnom/internal/mealplan"
	"github.com/fdg312/nomnom/internal/planexport"
	"github.com/fdg312/nomnom/internal/planstore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "show":
		runShow(cfg, args)
	case "add":
		runAdd(cfg, args)
	case "remove":
		runRemove(cfg, args)
	case "export":
		runExport(cfg, args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: planfile <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  show    print the week around a date")
	fmt.Fprintln(os.Stderr, "  add     place a recipe into a day slot")
	fmt.Fprintln(os.Stderr, "  remove  remove a recipe from a day slot")
	fmt.Fprintln(os.Stderr, "  export  write the week as a PDF")
}

func openStore(cfg *config.Config) (*planstore.Store, func()) {
	kv, err := kvstore.OpenSQLite(cfg.PlanDBPath)
	if err != nil {
		log.Fatalf("FATAL open plan db %s: %v", cfg.PlanDBPath, err)
	}

	store := planstore.NewWithDebounce(kv, time.Duration(cfg.PlanDebounceMS)*time.Millisecond)
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("WARN close plan store: %v", err)
		}
		kv.Close()
	}
}

func runShow(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	userID := fs.Int64("user", 0, "user id (0 for guest)")
	date := fs.String("date", dategrid.FormatISO(time.Now()), "reference date (YYYY-MM-DD)")
	fs.Parse(args)

	store, closeStore := openStore(cfg)
	defer closeStore()

	plan := store.Load(context.Background(), *userID)

	week, err := dategrid.WeekWindow(*date)
	if err != nil {
		log.Fatalf("FATAL bad date %q: %v", *date, err)
	}

	for _, day := range week {
		fmt.Printf("%s (%s)\n", day.ISO, day.Weekday)
		dayPlan := mealplan.NormalizeDay(plan[day.ISO])
		for _, slot := range mealplan.Slots() {
			refs := dayPlan[slot]
			if len(refs) == 0 {
				continue
			}
			fmt.Printf("  %s:\n", slot)
			for _, ref := range refs {
				fmt.Printf("    - [%d] %s (%s)\n", ref.ID, ref.Title, ref.Category)
			}
		}
	}
}

func runAdd(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	userID := fs.Int64("user", 0, "user id (0 for guest)")
	date := fs.String("date", "", "target date (YYYY-MM-DD)")
	slot := fs.String("slot", "", "meal slot (Breakfast|Lunch|Snacks|Dinner)")
	recipeID := fs.Int64("recipe", 0, "recipe id")
	title := fs.String("title", "", "recipe title")
	category := fs.String("category", "", "recipe category")
	fs.Parse(args)

	if *date == "" || *slot == "" || *recipeID <= 0 || *title == "" {
		log.Fatal("FATAL add: -date, -slot, -recipe and -title are required")
	}
	if _, err := dategrid.ParseISO(*date); err != nil {
		log.Fatalf("FATAL bad date %q: %v", *date, err)
	}
	s := mealplan.Slot(*slot)
	if !mealplan.ValidSlot(s) {
		log.Fatalf("FATAL unknown slot %q", *slot)
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	ctx := context.Background()
	plan := store.Load(ctx, *userID)
	plan = mealplan.AddMeal(plan, *date, s, mealplan.RecipeRef{
		ID:       *recipeID,
		Title:    *title,
		Category: *category,
	})
	store.Put(*userID, plan)
	store.Flush()

	fmt.Printf("added recipe %d to %s / %s\n", *recipeID, *date, s)
}

func runRemove(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	userID := fs.Int64("user", 0, "user id (0 for guest)")
	date := fs.String("date", "", "target date (YYYY-MM-DD)")
	slot := fs.String("slot", "", "meal slot (Breakfast|Lunch|Snacks|Dinner)")
	recipeID := fs.Int64("recipe", 0, "recipe id")
	fs.Parse(args)

	if *date == "" || *slot == "" || *recipeID <= 0 {
		log.Fatal("FATAL remove: -date, -slot and -recipe are required")
	}
	s := mealplan.Slot(*slot)
	if !mealplan.ValidSlot(s) {
		log.Fatalf("FATAL unknown slot %q", *slot)
	}

	store, closeStore := openStore(cfg)
	defer closeStore()

	ctx := context.Background()
	plan := store.Load(ctx, *userID)
	plan = mealplan.RemoveMeal(plan, *date, s, *recipeID)
	store.Put(*userID, plan)
	store.Flush()

	fmt.Printf("removed recipe %d from %s / %s\n", *recipeID, *date, s)
}

func runExport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	userID := fs.Int64("user", 0, "user id (0 for guest)")
	date := fs.String("date", dategrid.FormatISO(time.Now()), "reference date (YYYY-MM-DD)")
	out := fs.String("out", "", "output PDF path (default week-<date>.pdf)")
	title := fs.String("title", "Meal Plan", "document title")
	fs.Parse(args)

	store, closeStore := openStore(cfg)
	defer closeStore()

	plan := store.Load(context.Background(), *userID)

	data, err := planexport.WeekPDF(plan, *date, *title)
	if err != nil {
		log.Fatalf("FATAL export: %v", err)
	}

	path := *out
	if path == "" {
		path = "week-" + *date + ".pdf"
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("FATAL write %s: %v", path, err)
	}

	fmt.Printf("wrote %s (%s)\n", path, humanSize(len(data)))
}

func humanSize(n int) string {
	if n < 1024 {
		return strconv.Itoa(n) + " B"
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
