// Package mealview drives the meal-planning screen: view mode and date
// selection, the month cursor, the locally persisted plan, the fetched recipe
// catalog, and the recipe chooser.
package mealview

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/nomnom/internal/dategrid"
	"github.com/fdg312/nomnom/internal/mealplan"
	"github.com/fdg312/nomnom/internal/planstore"
)

// Mode selects the calendar presentation.
type Mode string

const (
	ModeToday Mode = "Today"
	ModeWeek  Mode = "Week"
	ModeMonth Mode = "Month"
)

// Rolling window around the active day in Today mode.
const (
	rollingBefore = 2
	rollingAfter  = 4
)

// chooserCap bounds the chooser list regardless of filtering.
const chooserCap = 30

// RecipeLister is the catalog surface the controller needs.
type RecipeLister interface {
	List(ctx context.Context, category, query string) ([]mealplan.RecipeRef, error)
}

// Controller holds the screen state. All methods are safe for concurrent use.
type Controller struct {
	store   *planstore.Store
	catalog RecipeLister
	clock   func() time.Time

	mu         sync.Mutex
	mode       Mode
	activeISO  string
	todayISO   string
	monthYear  int
	monthMonth time.Month
	plan       mealplan.Plan
	userID     int64
	recipes    []mealplan.RecipeRef
	fetchErr   error
	loading    bool
	fetchGen   uint64
}

// New builds a controller starting on today in Today mode, with the month
// cursor on the current month and a guest identity.
func New(store *planstore.Store, catalog RecipeLister) *Controller {
	return newWithClock(store, catalog, time.Now)
}

func newWithClock(store *planstore.Store, catalog RecipeLister, clock func() time.Time) *Controller {
	now := clock()
	return &Controller{
		store:      store,
		catalog:    catalog,
		clock:      clock,
		mode:       ModeToday,
		activeISO:  dategrid.FormatISO(now),
		todayISO:   dategrid.FormatISO(now),
		monthYear:  now.Year(),
		monthMonth: now.Month(),
		plan:       mealplan.Plan{},
	}
}

// SetIdentity switches the signed-in user (0 for guest) and loads that
// identity's persisted plan. Pending writes for the previous identity are
// flushed first so they land under the right key.
func (c *Controller) SetIdentity(ctx context.Context, userID int64) {
	c.store.Flush()
	plan := c.store.Load(ctx, userID)

	c.mu.Lock()
	c.userID = userID
	c.plan = plan
	c.mu.Unlock()
}

// Refresh fetches the recipe catalog. Overlapping calls may finish out of
// order; only the most recently started fetch installs its result.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.fetchGen++
	gen := c.fetchGen
	c.loading = true
	c.mu.Unlock()

	recipes, err := c.catalog.List(ctx, "", "")

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.fetchGen {
		return nil
	}
	c.loading = false
	if err != nil {
		c.recipes = nil
		c.fetchErr = err
		return err
	}
	c.recipes = recipes
	c.fetchErr = nil
	return nil
}

// Loading reports whether the most recent fetch is still in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// FetchErr returns the error from the last completed fetch, if any.
func (c *Controller) FetchErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchErr
}

// Mode returns the current view mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches between Today, Week and Month. Unknown values are ignored.
func (c *Controller) SetMode(m Mode) {
	switch m {
	case ModeToday, ModeWeek, ModeMonth:
	default:
		return
	}
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// ActiveDate returns the selected day as an ISO date.
func (c *Controller) ActiveDate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeISO
}

// SelectDate makes iso the active day. Invalid dates are ignored. The month
// cursor does not follow the selection.
func (c *Controller) SelectDate(iso string) {
	if _, err := dategrid.ParseISO(iso); err != nil {
		return
	}
	c.mu.Lock()
	c.activeISO = iso
	c.mu.Unlock()
}

// Days returns the strip of days for the current mode: a rolling window
// around the active day in Today mode, the active day's Monday-to-Sunday week
// in Week mode, nil in Month mode.
func (c *Controller) Days() []dategrid.DayItem {
	c.mu.Lock()
	mode := c.mode
	active := c.activeISO
	c.mu.Unlock()

	switch mode {
	case ModeToday:
		days, err := dategrid.RollingWindow(active, rollingBefore, rollingAfter)
		if err != nil {
			return nil
		}
		return days
	case ModeWeek:
		days, err := dategrid.WeekWindow(active)
		if err != nil {
			return nil
		}
		return days
	default:
		return nil
	}
}

// MonthTitle returns the cursor month as "March 2024".
func (c *Controller) MonthTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dategrid.MonthTitle(c.monthYear, c.monthMonth)
}

// Grid returns the Sunday-first month grid for the cursor month.
func (c *Controller) Grid() [][]dategrid.MonthCell {
	c.mu.Lock()
	year, month := c.monthYear, c.monthMonth
	c.mu.Unlock()

	grid, err := dategrid.MonthGrid(year, month)
	if err != nil {
		return nil
	}
	return grid
}

// PrevMonth moves the month cursor back one month, wrapping across the year
// boundary. The active date never changes.
func (c *Controller) PrevMonth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monthMonth == time.January {
		c.monthYear--
		c.monthMonth = time.December
		return
	}
	c.monthMonth--
}

// NextMonth moves the month cursor forward one month, wrapping across the
// year boundary. The active date never changes.
func (c *Controller) NextMonth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monthMonth == time.December {
		c.monthYear++
		c.monthMonth = time.January
		return
	}
	c.monthMonth++
}

// TickRollover observes the current date, typically once a minute. When the
// day changes it advances the active day only if the user was still sitting
// on the old today; a deliberately selected other day stays put.
func (c *Controller) TickRollover() {
	nowISO := dategrid.FormatISO(c.clock())

	c.mu.Lock()
	defer c.mu.Unlock()
	if nowISO == c.todayISO {
		return
	}
	if c.activeISO == c.todayISO {
		c.activeISO = nowISO
	}
	c.todayISO = nowISO
}

// Today returns the controller's notion of today as of the last tick.
func (c *Controller) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.todayISO
}

// DayMeals returns the normalized plan for the active day.
func (c *Controller) DayMeals() mealplan.DayPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mealplan.NormalizeDay(c.plan[c.activeISO])
}

// HasPlan reports whether any slot of iso has at least one meal; the month
// grid uses it for day markers.
func (c *Controller) HasPlan(iso string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return mealplan.HasAnyPlan(c.plan, iso)
}

// AddMeal puts recipe into the slot of the active day and schedules a
// persist. Duplicates within the slot are ignored.
func (c *Controller) AddMeal(slot mealplan.Slot, recipe mealplan.RecipeRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan = mealplan.AddMeal(c.plan, c.activeISO, slot, recipe)
	c.store.Put(c.userID, c.plan)
}

// RemoveMeal removes the recipe id from the slot of the active day and
// schedules a persist.
func (c *Controller) RemoveMeal(slot mealplan.Slot, recipeID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan = mealplan.RemoveMeal(c.plan, c.activeISO, slot, recipeID)
	c.store.Put(c.userID, c.plan)
}

// ClearSlot empties the slot of the active day and schedules a persist.
func (c *Controller) ClearSlot(slot mealplan.Slot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plan = mealplan.ClearSlot(c.plan, c.activeISO, slot)
	c.store.Put(c.userID, c.plan)
}

// Plan returns a snapshot of the whole plan.
func (c *Controller) Plan() mealplan.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(mealplan.Plan, len(c.plan))
	for iso, day := range c.plan {
		out[iso] = mealplan.NormalizeDay(day)
	}
	return out
}

// Chooser returns the recipes offered for a slot. Recipes whose category
// matches the slot name come first choice; when the catalog has none in that
// category, the whole catalog is offered instead. A non-empty query then
// keeps entries whose title, description or category contains it. The result
// is capped at 30 either way.
func (c *Controller) Chooser(slot mealplan.Slot, query string) []mealplan.RecipeRef {
	c.mu.Lock()
	recipes := c.recipes
	c.mu.Unlock()

	slotName := strings.ToLower(string(slot))
	base := make([]mealplan.RecipeRef, 0, len(recipes))
	for _, r := range recipes {
		if strings.ToLower(strings.TrimSpace(r.Category)) == slotName {
			base = append(base, r)
		}
	}
	source := base
	if len(source) == 0 {
		source = recipes
	}

	k := strings.ToLower(strings.TrimSpace(query))
	if k == "" {
		return capped(source)
	}

	matched := make([]mealplan.RecipeRef, 0, len(source))
	for _, r := range source {
		if strings.Contains(strings.ToLower(r.Title), k) ||
			strings.Contains(strings.ToLower(r.Description), k) ||
			strings.Contains(strings.ToLower(r.Category), k) {
			matched = append(matched, r)
		}
	}
	return capped(matched)
}

func capped(recipes []mealplan.RecipeRef) []mealplan.RecipeRef {
	if len(recipes) > chooserCap {
		recipes = recipes[:chooserCap]
	}
	out := make([]mealplan.RecipeRef, len(recipes))
	copy(out, recipes)
	return out
}
