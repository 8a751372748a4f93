package render

import "sort"

// window resolves the inclusive mounted index range for a viewport:
// the rows intersecting [ScrollTop, ScrollTop+Height), widened by the
// overscan margin on both sides.
func window(offsets []int, n int, vp *Viewport) (first, last int) {
	top := vp.ScrollTop
	if top < 0 {
		top = 0
	}
	bottom := top + vp.Height

	// First row still intersecting the viewport top: the last row whose
	// offset is at or above top. Offsets are strictly increasing, so
	// binary search applies.
	first = sort.Search(n, func(i int) bool {
		return i+1 >= n || offsets[i+1] > top
	})
	if first >= n {
		first = n - 1
	}

	last = first
	for last+1 < n && offsets[last+1] < bottom {
		last++
	}

	first -= overscan
	if first < 0 {
		first = 0
	}
	last += overscan
	if last > n-1 {
		last = n - 1
	}
	return first, last
}
