// Command nomnom is a terminal client for the NomNom API: sign in, browse
// the recipe catalog and edit the week's meal plan. Session and plan state
// live in the same SQLite file the mobile app uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/nomnom/internal/authclient"
	"github.com/fdg312/nomnom/internal/catalog"
	"github.com/fdg312/nomnom/internal/config"
	"github.com/fdg312/nomnom/internal/kvstore"
	"github.com/fdg312/nomnom/internal/mealplan"
	"github.com/fdg312/nomnom/internal/mealview"
	"github.com/fdg312/nomnom/internal/planstore"
)

type app struct {
	cfg     *config.Config
	kv      kvstore.Store
	auth    *authclient.Client
	catalog *catalog.Client
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()

	kv, err := kvstore.OpenSQLite(cfg.PlanDBPath)
	if err != nil {
		log.Fatalf("FATAL open %s: %v", cfg.PlanDBPath, err)
	}
	defer kv.Close()

	timeout := time.Duration(cfg.APITimeoutSeconds) * time.Second
	a := &app{
		cfg:     cfg,
		kv:      kv,
		auth:    authclient.New(cfg.APIBaseURL, kv, timeout),
		catalog: catalog.NewClient(cfg.APIBaseURL, timeout),
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "login":
		a.runLogin(args)
	case "signup":
		a.runSignup(args)
	case "logout":
		a.runLogout()
	case "whoami":
		a.runWhoami()
	case "browse":
		a.runBrowse(args)
	case "week":
		a.runWeek(args)
	case "pick":
		a.runPick(args)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nomnom <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login   sign in and persist the session")
	fmt.Fprintln(os.Stderr, "  signup  create an account and sign in")
	fmt.Fprintln(os.Stderr, "  logout  drop the persisted session")
	fmt.Fprintln(os.Stderr, "  whoami  show the restored session")
	fmt.Fprintln(os.Stderr, "  browse  list recipes from the catalog")
	fmt.Fprintln(os.Stderr, "  week    show this week's meal plan")
	fmt.Fprintln(os.Stderr, "  pick    offer chooser recipes for a slot")
}

func (a *app) runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		log.Fatal("FATAL login: -email and -password are required")
	}

	sess, err := a.auth.SignIn(context.Background(), *email, *password)
	if err != nil {
		log.Fatalf("FATAL login: %v", err)
	}
	fmt.Printf("signed in as %s (%s)\n", sess.User.Email, sess.User.Role)
}

func (a *app) runSignup(args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	name := fs.String("name", "", "full name (optional)")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		log.Fatal("FATAL signup: -email and -password are required")
	}

	sess, err := a.auth.SignUp(context.Background(), *name, *email, *password)
	if err != nil {
		log.Fatalf("FATAL signup: %v", err)
	}
	fmt.Printf("account created, signed in as %s\n", sess.User.Email)
}

func (a *app) runLogout() {
	if err := a.auth.SignOut(context.Background()); err != nil {
		log.Fatalf("FATAL logout: %v", err)
	}
	fmt.Println("signed out")
}

func (a *app) runWhoami() {
	sess, err := a.auth.Restore(context.Background())
	if err != nil {
		fmt.Println("not signed in")
		return
	}
	fmt.Printf("%s (%s, id=%d)\n", sess.User.Email, sess.User.Role, sess.User.ID)
}

func (a *app) runBrowse(args []string) {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	category := fs.String("category", "", "filter by category")
	query := fs.String("q", "", "search text")
	fs.Parse(args)

	recipes, err := a.catalog.List(context.Background(), *category, *query)
	if err != nil {
		log.Fatalf("FATAL browse: %v", err)
	}
	if len(recipes) == 0 {
		fmt.Println("no recipes")
		return
	}
	for _, r := range recipes {
		line := fmt.Sprintf("[%d] %s (%s)", r.ID, r.Title, r.Category)
		if r.TimeMinutes != nil {
			line += fmt.Sprintf(" %dmin", *r.TimeMinutes)
		}
		if r.Calories != nil {
			line += fmt.Sprintf(" %dkcal", *r.Calories)
		}
		fmt.Println(line)
	}
}

// newController builds the meal view controller on the restored identity and
// the live catalog, mirroring what the app does on launch.
func (a *app) newController(ctx context.Context) (*mealview.Controller, *planstore.Store) {
	store := planstore.NewWithDebounce(a.kv, time.Duration(a.cfg.PlanDebounceMS)*time.Millisecond)

	ctrl := mealview.New(store, a.catalog)
	if sess, err := a.auth.Restore(ctx); err == nil {
		ctrl.SetIdentity(ctx, sess.User.ID)
	}
	return ctrl, store
}

func (a *app) runWeek(args []string) {
	fs := flag.NewFlagSet("week", flag.ExitOnError)
	date := fs.String("date", "", "select a date inside the week (YYYY-MM-DD)")
	fs.Parse(args)

	ctx := context.Background()
	ctrl, store := a.newController(ctx)
	defer store.Close()

	ctrl.SetMode(mealview.ModeWeek)
	if *date != "" {
		ctrl.SelectDate(*date)
	}

	for _, day := range ctrl.Days() {
		marker := "  "
		if day.ISO == ctrl.Today() {
			marker = "* "
		}
		fmt.Printf("%s%s %s", marker, day.Weekday, day.ISO)
		if ctrl.HasPlan(day.ISO) {
			fmt.Print("  (planned)")
		}
		fmt.Println()
	}

	fmt.Println()
	dayPlan := ctrl.DayMeals()
	fmt.Printf("meals for %s:\n", ctrl.ActiveDate())
	for _, slot := range mealplan.Slots() {
		refs := dayPlan[slot]
		if len(refs) == 0 {
			fmt.Printf("  %s: -\n", slot)
			continue
		}
		fmt.Printf("  %s:\n", slot)
		for _, ref := range refs {
			fmt.Printf("    [%d] %s\n", ref.ID, ref.Title)
		}
	}
}

func (a *app) runPick(args []string) {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	slot := fs.String("slot", "", "meal slot (Breakfast|Lunch|Snacks|Dinner)")
	query := fs.String("q", "", "search text")
	fs.Parse(args)

	s := mealplan.Slot(*slot)
	if !mealplan.ValidSlot(s) {
		log.Fatalf("FATAL unknown slot %q", *slot)
	}

	ctx := context.Background()
	ctrl, store := a.newController(ctx)
	defer store.Close()

	if err := ctrl.Refresh(ctx); err != nil {
		log.Fatalf("FATAL catalog fetch: %v", err)
	}

	offered := ctrl.Chooser(s, *query)
	if len(offered) == 0 {
		fmt.Println("nothing to offer")
		return
	}
	for _, r := range offered {
		fmt.Printf("[%d] %s (%s)\n", r.ID, r.Title, r.Category)
	}
}
