// Package planexport renders a meal plan week as a printable PDF.
package planexport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/fdg312/nomnom/internal/dategrid"
	"github.com/fdg312/nomnom/internal/mealplan"
)

const (
	slotColWidth = 24.0
	rowHeight    = 7.0
	headerHeight = 8.0
	// Entries beyond this per cell collapse into a "+N more" line.
	maxEntriesPerCell = 3
)

// WeekPDF renders the Monday-to-Sunday week containing refISO as a one-page
// landscape table: one column per day, one row per meal slot.
func WeekPDF(plan mealplan.Plan, refISO string, title string) ([]byte, error) {
	days, err := dategrid.WeekWindow(refISO)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = "Meal Plan"
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Week of %s to %s", days[0].ISO, days[6].ISO))
	pdf.Ln(12)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	dayColWidth := (pageWidth - left - right - slotColWidth) / 7

	// Header row.
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(slotColWidth, headerHeight, "", "1", 0, "C", true, 0, "")
	for _, day := range days {
		label := fmt.Sprintf("%s %d", day.Weekday[:3], day.Day)
		pdf.CellFormat(dayColWidth, headerHeight, label, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, slot := range mealplan.Slots() {
		lines := make([][]string, 7)
		rows := 1
		for i, day := range days {
			lines[i] = cellLines(plan, day.ISO, slot)
			if len(lines[i]) > rows {
				rows = len(lines[i])
			}
		}
		cellHeight := rowHeight * float64(rows)

		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(slotColWidth, cellHeight, string(slot), "1", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "", 8)
		x, y := pdf.GetXY()
		for i := range days {
			drawCell(pdf, x+float64(i)*dayColWidth, y, dayColWidth, cellHeight, lines[i])
		}
		pdf.SetXY(x, y+cellHeight)
		pdf.SetX(left)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// cellLines lists the meal titles for one day and slot, truncated to the
// per-cell cap.
func cellLines(plan mealplan.Plan, iso string, slot mealplan.Slot) []string {
	day, ok := plan[iso]
	if !ok {
		return nil
	}
	meals := day[slot]
	if len(meals) == 0 {
		return nil
	}

	lines := make([]string, 0, maxEntriesPerCell+1)
	for i, meal := range meals {
		if i == maxEntriesPerCell {
			lines = append(lines, fmt.Sprintf("+%d more", len(meals)-maxEntriesPerCell))
			break
		}
		lines = append(lines, truncate(meal.Title, 26))
	}
	return lines
}

func drawCell(pdf *gofpdf.Fpdf, x, y, w, h float64, lines []string) {
	pdf.Rect(x, y, w, h, "D")
	for i, line := range lines {
		pdf.SetXY(x+1, y+float64(i)*rowHeight)
		pdf.CellFormat(w-2, rowHeight, line, "", 0, "L", false, 0, "")
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
