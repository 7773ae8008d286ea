package merge

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// FileInput describes one three-way file merge. Labels are used in conflict
// markers; empty labels render as "ours"/"theirs".
type FileInput struct {
	Base   []byte
	Ours   []byte
	Theirs []byte

	OursLabel   string
	TheirsLabel string

	Favor FileFavor

	// Diff3 includes the base content between the markers.
	Diff3 bool
}

// FileResult is the outcome of one file merge. Conflicts counts the regions
// recorded as conflicted; only FavorNormal ever records one.
type FileResult struct {
	Content   []byte
	Conflicts int
}

// hunk is one region a side rewrites: base lines [baseStart, baseEnd) are
// replaced by lines.
type hunk struct {
	baseStart int
	baseEnd   int
	lines     []string
}

// MergeFile performs a line-based three-way merge of base, ours and theirs.
// Regions changed by only one side take that side's content; regions changed
// identically by both sides are taken once; regions changed differently are
// resolved according to in.Favor.
func MergeFile(in FileInput) FileResult {
	baseLines := splitLines(string(in.Base))
	oursLines := splitLines(string(in.Ours))
	theirsLines := splitLines(string(in.Theirs))

	oursHunks := sideHunks(string(in.Base), string(in.Ours))
	theirsHunks := sideHunks(string(in.Base), string(in.Theirs))

	oursLabel := in.OursLabel
	if oursLabel == "" {
		oursLabel = "ours"
	}
	theirsLabel := in.TheirsLabel
	if theirsLabel == "" {
		theirsLabel = "theirs"
	}

	// Whole-file shortcuts keep the common cases cheap.
	if len(oursHunks) == 0 {
		return FileResult{Content: []byte(joinLines(theirsLines))}
	}
	if len(theirsHunks) == 0 {
		return FileResult{Content: []byte(joinLines(oursLines))}
	}

	var (
		out       []string
		conflicts int
		cur       int
		i, j      int
	)

	for i < len(oursHunks) || j < len(theirsHunks) {
		if i < len(oursHunks) && (j >= len(theirsHunks) || before(oursHunks[i], theirsHunks[j])) {
			h := oursHunks[i]
			i++
			out = append(out, baseLines[cur:h.baseStart]...)
			out = append(out, h.lines...)
			cur = h.baseEnd
			continue
		}
		if j < len(theirsHunks) && (i >= len(oursHunks) || before(theirsHunks[j], oursHunks[i])) {
			h := theirsHunks[j]
			j++
			out = append(out, baseLines[cur:h.baseStart]...)
			out = append(out, h.lines...)
			cur = h.baseEnd
			continue
		}

		// Both sides touch the same base region: widen the region until no
		// further hunk from either side overlaps it.
		s := min(oursHunks[i].baseStart, theirsHunks[j].baseStart)
		e := max(oursHunks[i].baseEnd, theirsHunks[j].baseEnd)
		oi, tj := i, j
		i++
		j++
		for {
			grew := false
			for i < len(oursHunks) && oursHunks[i].baseStart < e {
				e = max(e, oursHunks[i].baseEnd)
				i++
				grew = true
			}
			for j < len(theirsHunks) && theirsHunks[j].baseStart < e {
				e = max(e, theirsHunks[j].baseEnd)
				j++
				grew = true
			}
			if !grew {
				break
			}
		}

		oursRegion := applyHunks(baseLines, s, e, oursHunks[oi:i])
		theirsRegion := applyHunks(baseLines, s, e, theirsHunks[tj:j])

		out = append(out, baseLines[cur:s]...)
		cur = e

		if equalLines(oursRegion, theirsRegion) {
			out = append(out, oursRegion...)
			continue
		}

		switch in.Favor {
		case FavorOurs:
			out = append(out, oursRegion...)
		case FavorTheirs:
			out = append(out, theirsRegion...)
		case FavorUnion:
			out = append(out, unionLines(oursRegion, theirsRegion)...)
		case FavorNormal:
			out = append(out, withNL("<<<<<<< "+oursLabel))
			out = append(out, normalizeNL(oursRegion)...)
			if in.Diff3 {
				out = append(out, withNL("||||||| base"))
				out = append(out, normalizeNL(baseLines[s:e])...)
			}
			out = append(out, withNL("======="))
			out = append(out, normalizeNL(theirsRegion)...)
			out = append(out, withNL(">>>>>>> "+theirsLabel))
			conflicts++
		}
	}

	out = append(out, baseLines[cur:]...)

	return FileResult{Content: []byte(joinLines(out)), Conflicts: conflicts}
}

// sideHunks computes the ordered, coalesced hunks one side applies to base.
func sideHunks(base, side string) []hunk {
	dmp := diffmatchpatch.New()
	c1, c2, lineArray := dmp.DiffLinesToChars(base, side)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(c1, c2, false), lineArray)

	var hunks []hunk
	cur := 0
	for _, d := range diffs {
		lines := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			cur += len(lines)
		case diffmatchpatch.DiffDelete:
			hunks = append(hunks, hunk{baseStart: cur, baseEnd: cur + len(lines)})
			cur += len(lines)
		case diffmatchpatch.DiffInsert:
			hunks = append(hunks, hunk{baseStart: cur, baseEnd: cur, lines: lines})
		}
	}

	return coalesce(hunks)
}

// coalesce merges touching hunks so a delete+insert pair becomes one
// replacement.
func coalesce(hunks []hunk) []hunk {
	var out []hunk
	for _, h := range hunks {
		if n := len(out); n > 0 && h.baseStart <= out[n-1].baseEnd {
			out[n-1].baseEnd = max(out[n-1].baseEnd, h.baseEnd)
			out[n-1].lines = append(out[n-1].lines, h.lines...)
			continue
		}
		out = append(out, h)
	}
	return out
}

// before reports whether hunk a can be applied strictly before hunk b.
// Touching hunks only collide when both are pure insertions at the same
// point.
func before(a, b hunk) bool {
	if a.baseEnd != b.baseStart {
		return a.baseEnd < b.baseStart
	}
	return !(a.baseStart == a.baseEnd && b.baseStart == b.baseEnd)
}

// applyHunks reconstructs one side's content for base region [s, e).
func applyHunks(base []string, s, e int, hunks []hunk) []string {
	var out []string
	cur := s
	for _, h := range hunks {
		out = append(out, base[cur:h.baseStart]...)
		out = append(out, h.lines...)
		cur = h.baseEnd
	}
	out = append(out, base[cur:e]...)
	return out
}

// unionLines keeps every ours line, then every theirs line not already
// present. No markers are written.
func unionLines(ours, theirs []string) []string {
	seen := make(map[string]bool, len(ours))
	out := make([]string, 0, len(ours)+len(theirs))
	for _, l := range ours {
		seen[l] = true
		out = append(out, l)
	}
	for _, l := range theirs {
		if !seen[l] {
			out = append(out, l)
		}
	}
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitLines keeps the trailing newline on each line so reassembly is plain
// concatenation.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	return strings.Join(lines, "")
}

func withNL(s string) string {
	return s + "\n"
}

// normalizeNL terminates every line so conflict markers land on their own
// lines even when the region's last line has no newline.
func normalizeNL(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if !strings.HasSuffix(l, "\n") {
			l += "\n"
		}
		out[i] = l
	}
	return out
}
