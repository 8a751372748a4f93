package transearch

import (
	"github.com/civicscope/transearch/internal/usecase/render"
)

// Re-exported layout types for result rendering.
type (
	// RenderPlan is the layout decision for one render cycle.
	RenderPlan = render.Plan
	// RenderRow is one positioned result row.
	RenderRow = render.Row
	// Viewport describes the visible region of the scroll container.
	Viewport = render.Viewport
	// StateFn reports a per-item boolean keyed by item id.
	StateFn = render.StateFn
)

// Plan kinds.
const (
	RenderPlaceholder = render.KindPlaceholder
	RenderFull        = render.KindFull
	RenderWindowed    = render.KindWindowed
)

// PlanRender lays out a page of results: every row for small sets, a
// window plus overscan for large ones, a placeholder when empty.
func PlanRender(page *Page, expanded, selected StateFn, vp *Viewport) RenderPlan {
	return render.BuildPage(page, expanded, selected, vp)
}
