// Package render plans how a page of results is laid out: every row
// materialized for small sets, a scroll window over precomputed offsets
// for large ones. The planner is pure; callers own the actual painting.
package render

import (
	"github.com/civicscope/transearch/internal/domain/search/result"
)

// Layout constants in logical pixels. The same constants feed both the
// offset math and the row heights; a renderer that paints rows at a
// different height than ReportedHeight will drift on scroll.
const (
	rowBase          = 72
	rowExpandedExtra = 120
	rowGap           = 8

	// fullRenderMax is the item count below which windowing overhead
	// exceeds its benefit and every row is materialized directly.
	fullRenderMax = 48

	// overscan is the number of rows mounted beyond each edge of the
	// viewport so fast scrolling does not expose blank space.
	overscan = 6
)

// Kind discriminates the plan variants.
type Kind int

const (
	// KindPlaceholder is the plan for an empty result set: a single
	// "no results" row instead of an empty scroll container.
	KindPlaceholder Kind = iota
	// KindFull materializes every row.
	KindFull
	// KindWindowed materializes only the rows near the viewport.
	KindWindowed
)

// Viewport describes the visible region of the scroll container.
type Viewport struct {
	// Height is the container height; zero or negative means unknown,
	// which forces a full plan.
	Height int
	// ScrollTop is the current scroll offset from the top of the content.
	ScrollTop int
}

// Row is one positioned result row.
type Row struct {
	Index    int
	Item     result.Item
	Top      int // absolute offset from the top of the content
	Height   int // rowBase, plus rowExpandedExtra when expanded
	Expanded bool
	Selected bool
}

// Plan is the layout decision for one render cycle.
type Plan struct {
	Kind Kind
	// Rows carries every row for a full plan and only the mounted window
	// for a windowed plan.
	Rows []Row
	// ContentHeight is the total scrollable height including gaps.
	ContentHeight int
	// First and Last bound the mounted window, inclusive. Zero values for
	// full and placeholder plans cover the degenerate cases.
	First, Last int
}

// StateFn reports a per-item boolean keyed by item id. A nil StateFn
// means false for every item.
type StateFn func(id string) bool

func rowHeight(expanded bool) int {
	if expanded {
		return rowBase + rowExpandedExtra
	}
	return rowBase
}

// Build lays out items for one render cycle. expanded and selected may be
// nil. A plan is windowed only when the item count reaches the full-render
// threshold and the viewport height is known.
func Build(items []result.Item, expanded, selected StateFn, vp *Viewport) Plan {
	if expanded == nil {
		expanded = func(string) bool { return false }
	}
	if selected == nil {
		selected = func(string) bool { return false }
	}

	if len(items) == 0 {
		return Plan{Kind: KindPlaceholder}
	}

	offsets, total := offsetsOf(items, expanded)

	if len(items) < fullRenderMax || vp == nil || vp.Height <= 0 {
		rows := make([]Row, len(items))
		for i, it := range items {
			rows[i] = makeRow(i, it, offsets[i], expanded, selected)
		}
		return Plan{
			Kind:          KindFull,
			Rows:          rows,
			ContentHeight: total,
			Last:          len(items) - 1,
		}
	}

	first, last := window(offsets, len(items), vp)
	rows := make([]Row, 0, last-first+1)
	for i := first; i <= last; i++ {
		rows = append(rows, makeRow(i, items[i], offsets[i], expanded, selected))
	}
	return Plan{
		Kind:          KindWindowed,
		Rows:          rows,
		ContentHeight: total,
		First:         first,
		Last:          last,
	}
}

func makeRow(i int, it result.Item, top int, expanded, selected StateFn) Row {
	exp := expanded(it.ID())
	return Row{
		Index:    i,
		Item:     it,
		Top:      top,
		Height:   rowHeight(exp),
		Expanded: exp,
		Selected: selected(it.ID()),
	}
}

// offsetsOf returns the prefix-sum top offset of each row and the total
// content height. Toggling one item's expansion leaves every offset
// before it untouched.
func offsetsOf(items []result.Item, expanded StateFn) ([]int, int) {
	offsets := make([]int, len(items))
	y := 0
	for i, it := range items {
		offsets[i] = y
		y += rowHeight(expanded(it.ID()))
		if i < len(items)-1 {
			y += rowGap
		}
	}
	return offsets, y
}

// BuildPage is a convenience wrapper over Build for a result page.
func BuildPage(page *result.Page, expanded, selected StateFn, vp *Viewport) Plan {
	return Build(page.Items(), expanded, selected, vp)
}
