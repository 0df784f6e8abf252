package pipeline

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/octobees/prospecting-crm/api/internal/status"
)

// All disables the category and status stages.
const All = "all"

// SortKey names a user-selectable sort column.
type SortKey string

const (
	SortName       SortKey = "name"
	SortSector     SortKey = "sector"
	SortRevenue    SortKey = "revenue"
	SortHeadcount  SortKey = "headcount"
	SortDepartment SortKey = "department"
	SortStatus     SortKey = "status"
)

// ParseSortKey returns the key for raw, falling back to SortName.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case SortSector:
		return SortSector
	case SortRevenue:
		return SortRevenue
	case SortHeadcount:
		return SortHeadcount
	case SortDepartment:
		return SortDepartment
	case SortStatus:
		return SortStatus
	default:
		return SortName
	}
}

// Facts is the view of a row the pipeline filters and sorts on.
type Facts struct {
	Name            string
	Sector          string
	Department      string
	Headcount       int64
	Revenue         int64
	IsHidden        bool
	IsHotSignal     bool
	ContactNames    []string
	ContactStatuses []status.Status
}

// Category is an optional exact-match filter on a single field.
type Category struct {
	Field string
	Value string
}

// Sort selects the user-chosen key and direction.
type Sort struct {
	Key  SortKey
	Desc bool
}

// Options configures one pipeline run. Zero values disable the optional stages.
type Options struct {
	ShowHidden       bool
	Targeting        *Criteria
	RequireTargeting bool
	Category         Category
	Query            string
	Status           string
	Sort             Sort
	Page             int
	PageSize         int
}

// Row pairs a value with its aggregate contact status.
type Row[T any] struct {
	Value  T             `json:"item"`
	Status status.Status `json:"aggregate_status"`
}

// Result is one page of pipeline output.
type Result[T any] struct {
	Paged[Row[T]]
	NeedsTargeting bool `json:"needs_targeting"`
}

// Run applies every stage, pagination included.
func Run[T any](items []T, facts func(T) Facts, opts Options, h *status.Hierarchy) Result[T] {
	if opts.RequireTargeting && opts.Targeting == nil {
		return Result[T]{
			Paged:          Paginate([]Row[T]{}, opts.Page, opts.PageSize),
			NeedsTargeting: true,
		}
	}
	rows := Select(items, facts, opts, h)
	return Result[T]{Paged: Paginate(rows, opts.Page, opts.PageSize)}
}

type entry[T any] struct {
	value  T
	facts  Facts
	status status.Status
}

// Select applies the filter stages and the sort, without pagination.
func Select[T any](items []T, facts func(T) Facts, opts Options, h *status.Hierarchy) []Row[T] {
	if h == nil {
		h = status.Default()
	}
	if opts.RequireTargeting && opts.Targeting == nil {
		return []Row[T]{}
	}

	entries := make([]entry[T], 0, len(items))
	for _, item := range items {
		f := facts(item)
		entries = append(entries, entry[T]{value: item, facts: f, status: h.MostAdvanced(f.ContactStatuses)})
	}

	entries = filterVisible(entries, opts.ShowHidden)
	entries = filterTargeting(entries, opts.Targeting)
	entries = filterCategory(entries, opts.Category)
	entries = filterSearch(entries, opts.Query)
	entries = filterStatus(entries, opts.Status, h)
	sortEntries(entries, opts.Sort, h)

	rows := make([]Row[T], 0, len(entries))
	for _, e := range entries {
		rows = append(rows, Row[T]{Value: e.value, Status: e.status})
	}
	return rows
}

func filterVisible[T any](in []entry[T], showHidden bool) []entry[T] {
	if showHidden {
		return in
	}
	return keep(in, func(e entry[T]) bool { return !e.facts.IsHidden })
}

func filterTargeting[T any](in []entry[T], criteria *Criteria) []entry[T] {
	if criteria == nil {
		return in
	}
	return keep(in, func(e entry[T]) bool { return criteria.Matches(e.facts) })
}

func filterCategory[T any](in []entry[T], category Category) []entry[T] {
	value := strings.TrimSpace(category.Value)
	if value == "" || strings.EqualFold(value, All) {
		return in
	}
	var field func(Facts) string
	switch strings.ToLower(strings.TrimSpace(category.Field)) {
	case "sector":
		field = func(f Facts) string { return f.Sector }
	default:
		field = func(f Facts) string { return f.Department }
	}
	return keep(in, func(e entry[T]) bool { return field(e.facts) == value })
}

func filterSearch[T any](in []entry[T], query string) []entry[T] {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return in
	}
	return keep(in, func(e entry[T]) bool {
		if strings.Contains(strings.ToLower(e.facts.Name), query) {
			return true
		}
		for _, name := range e.facts.ContactNames {
			if strings.Contains(strings.ToLower(name), query) {
				return true
			}
		}
		return false
	})
}

func filterStatus[T any](in []entry[T], raw string, h *status.Hierarchy) []entry[T] {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, All) {
		return in
	}
	want, ok := h.Parse(raw)
	if !ok {
		return in[:0]
	}
	return keep(in, func(e entry[T]) bool { return e.status == want })
}

func keep[T any](in []entry[T], pred func(entry[T]) bool) []entry[T] {
	out := make([]entry[T], 0, len(in))
	for _, e := range in {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func sortEntries[T any](entries []entry[T], s Sort, h *status.Hierarchy) {
	col := collate.New(language.French, collate.IgnoreCase)
	compare := func(a, b entry[T]) int {
		switch s.Key {
		case SortSector:
			return col.CompareString(a.facts.Sector, b.facts.Sector)
		case SortDepartment:
			return col.CompareString(a.facts.Department, b.facts.Department)
		case SortRevenue:
			return compareInt(a.facts.Revenue, b.facts.Revenue)
		case SortHeadcount:
			return compareInt(a.facts.Headcount, b.facts.Headcount)
		case SortStatus:
			return compareInt(int64(h.Rank(a.status)), int64(h.Rank(b.status)))
		default:
			return col.CompareString(a.facts.Name, b.facts.Name)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.facts.IsHotSignal != b.facts.IsHotSignal {
			return a.facts.IsHotSignal
		}
		c := compare(a, b)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
