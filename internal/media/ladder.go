package media

import "sort"

// DefaultLadder is the descending set of target heights attempted for every
// upload.
var DefaultLadder = []int{1080, 720, 480, 360}

// SelectRungs filters the ladder against the source's native height: no
// rung may upscale. If that empties the ladder the native height itself is
// returned, so at least one rendition is always attempted. The result is
// sorted highest first, which is also the encode order.
func SelectRungs(ladder []int, nativeHeight int) []int {
	if len(ladder) == 0 {
		ladder = DefaultLadder
	}

	rungs := make([]int, 0, len(ladder))
	for _, h := range ladder {
		if h <= nativeHeight {
			rungs = append(rungs, h)
		}
	}

	if len(rungs) == 0 && nativeHeight > 0 {
		rungs = append(rungs, nativeHeight)
	}

	// The configured ladder may come in any order.
	sort.Sort(sort.Reverse(sort.IntSlice(rungs)))

	return rungs
}
