package audio

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var digitRuns = regexp.MustCompile(`\d+`)

// indexRuns returns the digit runs in the segment's base name. The
// extension is stripped first so the 3 in .mp3 never counts as an index.
func indexRuns(segment string) []string {
	base := strings.TrimSuffix(path.Base(segment), path.Ext(segment))
	return digitRuns.FindAllString(base, -1)
}

// firstIndex returns the first run of digits in the segment's base name:
// 12 for output-012.mp3, 1 for merged-001-032.mp3.
func firstIndex(segment string) int {
	runs := indexRuns(segment)
	if len(runs) == 0 {
		return 0
	}
	return atoi(runs[0])
}

// lastIndex returns the last run of digits in the segment's base name:
// 12 for output-012.mp3, 32 for merged-001-032.mp3.
func lastIndex(segment string) int {
	runs := indexRuns(segment)
	if len(runs) == 0 {
		return 0
	}
	return atoi(runs[len(runs)-1])
}

// SortSegments orders segment paths by their numeric sequence index.
// Segment order is defined by this index, never by listing order.
func SortSegments(segments []string) {
	sort.SliceStable(segments, func(i, j int) bool {
		return firstIndex(segments[i]) < firstIndex(segments[j])
	})
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
