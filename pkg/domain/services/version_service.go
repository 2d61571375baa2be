package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// VersionComparator orders formula versions, comparing numeric segments numerically
// so that "1.10" sorts after "1.9" and "v2" after "v1".
type VersionComparator struct {
	segmentPattern *regexp.Regexp
}

// NewVersionComparator creates a comparator splitting versions on '.', '-' and '_'
func NewVersionComparator() *VersionComparator {
	return &VersionComparator{
		segmentPattern: regexp.MustCompile(`^([^\d]*)(\d*)$`),
	}
}

// CompareVersions returns -1 if v1 < v2, 0 if equal, 1 if v1 > v2
func (vc *VersionComparator) CompareVersions(v1, v2 string) int {
	if v1 == v2 {
		return 0
	}

	segs1 := splitVersion(v1)
	segs2 := splitVersion(v2)

	for i := 0; i < len(segs1) && i < len(segs2); i++ {
		if c := vc.compareSegment(segs1[i], segs2[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(segs1) < len(segs2):
		return -1
	case len(segs1) > len(segs2):
		return 1
	}
	return strings.Compare(v1, v2)
}

// compareSegment compares one version segment: prefix first, then its numeric suffix
func (vc *VersionComparator) compareSegment(s1, s2 string) int {
	prefix1, num1, ok1 := vc.parseSegment(s1)
	prefix2, num2, ok2 := vc.parseSegment(s2)

	// If either parsing fails, fall back to string comparison
	if !ok1 || !ok2 {
		return strings.Compare(strings.ToLower(s1), strings.ToLower(s2))
	}

	if c := strings.Compare(strings.ToLower(prefix1), strings.ToLower(prefix2)); c != 0 {
		return c
	}

	if num1 < num2 {
		return -1
	} else if num1 > num2 {
		return 1
	}
	return 0
}

func (vc *VersionComparator) parseSegment(seg string) (string, int, bool) {
	matches := vc.segmentPattern.FindStringSubmatch(seg)
	if len(matches) != 3 {
		return "", 0, false
	}
	if matches[2] == "" {
		return matches[1], -1, true
	}

	num, err := strconv.Atoi(matches[2])
	if err != nil {
		return "", 0, false
	}
	return matches[1], num, true
}

func splitVersion(v string) []string {
	return strings.FieldsFunc(strings.TrimSpace(v), func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
}

// SelectActiveHeader picks the formula explosion should follow among a product's headers:
// status Active, not deleted, highest version. Returns nil when none qualifies.
func (vc *VersionComparator) SelectActiveHeader(headers []*entities.BOMHeader) *entities.BOMHeader {
	var selected *entities.BOMHeader
	for _, h := range headers {
		if !h.IsTraversable() {
			continue
		}
		if selected == nil || vc.CompareVersions(h.Version, selected.Version) > 0 {
			selected = h
		}
	}
	return selected
}
