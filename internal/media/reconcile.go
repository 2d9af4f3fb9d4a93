// Package media applies a property edit's declarative media changes: new
// uploads, deletion markers, an explicit ordering, and an optional promotion
// to main image. The steps run in a fixed order so the same edit always
// produces the same arrays.
package media

// Edit describes one request's changes to an ordered media list.
//
// Deletes index the list as it existed before this request's uploads were
// appended. Order also indexes the pre-delete list; entries referring to
// deleted positions are skipped and the survivors keep the requested
// relative order, with any unmentioned survivors following in their original
// order. Uploads always end up after the reordered survivors.
type Edit struct {
	Deletes []int
	Order   []int
}

// Reconcile rebuilds an ordered list: delete first, then reorder the
// survivors, then append uploads. Out-of-range indices are ignored rather
// than failing, favoring resilience to partially stale client state.
func Reconcile[T any](existing []T, uploads []T, e Edit) []T {
	n := len(existing)

	removed := make([]bool, n)
	for _, d := range e.Deletes {
		if d >= 0 && d < n {
			removed[d] = true
		}
	}

	// survivorPos maps a pre-delete index to its post-delete position, -1
	// for deleted entries.
	survivorPos := make([]int, n)
	survivors := make([]T, 0, n)
	for i := range existing {
		if removed[i] {
			survivorPos[i] = -1
			continue
		}
		survivorPos[i] = len(survivors)
		survivors = append(survivors, existing[i])
	}

	if len(e.Order) > 0 {
		reordered := make([]T, 0, len(survivors))
		taken := make([]bool, len(survivors))
		for _, o := range e.Order {
			if o < 0 || o >= n || survivorPos[o] == -1 {
				continue
			}
			pos := survivorPos[o]
			if taken[pos] {
				continue
			}
			taken[pos] = true
			reordered = append(reordered, survivors[pos])
		}
		for pos, s := range survivors {
			if !taken[pos] {
				reordered = append(reordered, s)
			}
		}
		survivors = reordered
	}

	result := make([]T, 0, len(survivors)+len(uploads))
	result = append(result, survivors...)
	return append(result, uploads...)
}

// PromoteMain swaps the main image with images[index]: the entry at index
// becomes main, and the previous main goes to the end of the list. A stale
// index is a no-op, so the main image is never lost to a client working from
// an outdated view of the list.
func PromoteMain(main string, images []string, index int) (string, []string) {
	if index < 0 || index >= len(images) {
		return main, images
	}
	newMain := images[index]
	rest := make([]string, 0, len(images))
	rest = append(rest, images[:index]...)
	rest = append(rest, images[index+1:]...)
	rest = append(rest, main)
	return newMain, rest
}
