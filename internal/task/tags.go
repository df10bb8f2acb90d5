package task

import "strings"

// MergeTags appends the non-empty trimmed values of more to existing, skipping duplicates.
// Order of first appearance is kept and comparison is case-sensitive.
func MergeTags(existing []string, more ...string) []string {
	out := make([]string, 0, len(existing)+len(more))
	seen := make(map[string]struct{}, len(existing)+len(more))
	for _, tag := range append(append([]string(nil), existing...), more...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ParseTags splits free-text tag entry on commas and newlines.
func ParseTags(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	return MergeTags(nil, fields...)
}

// RemoveTag drops tag from tags.
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}
