package drive

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// DirectURL is the public image link for a Drive file.
func DirectURL(id string) string {
	return "https://drive.google.com/uc?export=view&id=" + id
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// NormalizeLabel lowercases s and strips everything but letters and digits.
func NormalizeLabel(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// Match records how a row's photo was chosen.
type Match string

const (
	MatchNone     Match = ""
	MatchExact    Match = "exact"
	MatchPrefix   Match = "prefix"
	MatchContains Match = "contains"
	MatchFuzzy    Match = "fuzzy"
	MatchOrder    Match = "order"
)

// Assignment is the photo chosen for one row. URL is empty when the row was
// left alone.
type Assignment struct {
	Row   int
	URL   string
	File  File
	Match Match
}

// Assigner pairs seed rows with folder files.
type Assigner struct {
	// ByOrder skips label matching and hands out images in name order.
	ByOrder bool
	// MinSimilarity enables Jaro-Winkler matching when > 0.
	MinSimilarity float64
}

// Assign picks a photo for every row whose current photo is blank. labels and
// current are indexed by row. Rows are matched on label first; when ByOrder is
// set or no label matched, remaining rows receive unused images in name order.
func (a Assigner) Assign(labels, current []string, files []File) []Assignment {
	out := make([]Assignment, len(labels))
	for i := range out {
		out[i].Row = i
	}

	groups := groupByLabel(files)
	used := map[string]bool{}
	assigned := 0

	if !a.ByOrder {
		for i, label := range labels {
			if i < len(current) && strings.TrimSpace(current[i]) != "" {
				continue
			}
			f, match, ok := a.match(NormalizeLabel(label), groups)
			if !ok {
				continue
			}
			out[i] = Assignment{Row: i, URL: DirectURL(f.ID), File: f, Match: match}
			used[f.ID] = true
			assigned++
		}
	}

	if a.ByOrder || assigned == 0 {
		images := Images(files)
		SortByName(images)
		next := 0
		for i := range labels {
			if out[i].URL != "" || (i < len(current) && strings.TrimSpace(current[i]) != "") {
				continue
			}
			for next < len(images) && used[images[next].ID] {
				next++
			}
			if next >= len(images) {
				break
			}
			f := images[next]
			out[i] = Assignment{Row: i, URL: DirectURL(f.ID), File: f, Match: MatchOrder}
			used[f.ID] = true
			next++
		}
	}
	return out
}

type group struct {
	key   string
	files []File
}

// groupByLabel buckets files by normalized base name, in first-seen order.
func groupByLabel(files []File) []group {
	var groups []group
	index := map[string]int{}
	for _, f := range files {
		key := NormalizeLabel(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)))
		if key == "" {
			key = "misc"
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].files = append(groups[i].files, f)
	}
	return groups
}

func (a Assigner) match(label string, groups []group) (File, Match, bool) {
	if label == "" {
		return File{}, MatchNone, false
	}

	for _, g := range groups {
		if g.key == label {
			return pick(g.files, MatchExact)
		}
	}

	var candidates []File
	for _, g := range groups {
		if strings.HasPrefix(g.key, label) {
			candidates = append(candidates, g.files...)
		}
	}
	if len(candidates) > 0 {
		return pick(candidates, MatchPrefix)
	}

	for _, g := range groups {
		if strings.Contains(g.key, label) {
			candidates = append(candidates, g.files...)
		}
	}
	if len(candidates) > 0 {
		return pick(candidates, MatchContains)
	}

	if a.MinSimilarity <= 0 {
		return File{}, MatchNone, false
	}
	best, bestScore := -1, 0.0
	for i, g := range groups {
		if score := matchr.JaroWinkler(label, g.key, false); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 && bestScore >= a.MinSimilarity {
		return pick(groups[best].files, MatchFuzzy)
	}
	return File{}, MatchNone, false
}

// pick prefers the first image by name, falling back to any file.
func pick(files []File, match Match) (File, Match, bool) {
	candidates := Images(files)
	if len(candidates) == 0 {
		candidates = append([]File(nil), files...)
	}
	if len(candidates) == 0 {
		return File{}, MatchNone, false
	}
	SortByName(candidates)
	return candidates[0], match, true
}
