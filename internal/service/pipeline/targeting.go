package pipeline

import "strings"

// Criteria is the filter rule of an active targeting. Nil bounds are ignored.
type Criteria struct {
	Departments  []string
	Sectors      []string
	MinHeadcount *int64
	MaxHeadcount *int64
	MinRevenue   *int64
	MaxRevenue   *int64
}

// Matches reports whether every configured constraint holds for f.
// Sectors match loosely: the company sector only has to contain one of them.
func (c Criteria) Matches(f Facts) bool {
	if len(c.Departments) > 0 && !containsExact(c.Departments, f.Department) {
		return false
	}
	if len(c.Sectors) > 0 && !containsSubstring(c.Sectors, f.Sector) {
		return false
	}
	if c.MinHeadcount != nil && f.Headcount < *c.MinHeadcount {
		return false
	}
	if c.MaxHeadcount != nil && f.Headcount > *c.MaxHeadcount {
		return false
	}
	if c.MinRevenue != nil && f.Revenue < *c.MinRevenue {
		return false
	}
	if c.MaxRevenue != nil && f.Revenue > *c.MaxRevenue {
		return false
	}
	return true
}

func containsExact(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsSubstring(needles []string, haystack string) bool {
	haystack = strings.ToLower(haystack)
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
