package search

import "regexp"

// Segment is one fragment of highlighted text.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Highlight splits text around case-insensitive literal occurrences of
// keyword and marks the occurrences. It works on the raw text, so a
// customer found through kana or width folding may come back with no
// marked segment.
func Highlight(text, keyword string) []Segment {
	if keyword == "" {
		return []Segment{{Text: text}}
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(keyword))

	var out []Segment
	prev := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > prev {
			out = append(out, Segment{Text: text[prev:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], Match: true})
		prev = loc[1]
	}
	if prev < len(text) || len(out) == 0 {
		out = append(out, Segment{Text: text[prev:]})
	}
	return out
}
