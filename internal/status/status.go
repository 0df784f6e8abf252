package status

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Status is a contact pipeline stage.
type Status string

const (
	Nouveau    Status = "Nouveau"
	Engage     Status = "Engagé"
	Discussion Status = "Discussion"
	RDV        Status = "RDV"
	Exclu      Status = "Exclu"
)

// DefaultOrder lists the stages from least to most advanced.
// Exclu ranks above RDV when reducing a company's contacts to one stage.
var DefaultOrder = []Status{Nouveau, Engage, Discussion, RDV, Exclu}

// Hierarchy is a total order over the closed set of stages.
type Hierarchy struct {
	order []Status
	rank  map[Status]int
}

// Default returns the hierarchy using DefaultOrder.
func Default() *Hierarchy {
	h, _ := New(DefaultOrder)
	return h
}

// New builds a hierarchy from an explicit ranking, lowest first. The ranking must
// contain every known stage exactly once.
func New(order []Status) (*Hierarchy, error) {
	if len(order) != len(DefaultOrder) {
		return nil, fmt.Errorf("status ranking must list %d statuses, got %d", len(DefaultOrder), len(order))
	}
	known := make(map[Status]struct{}, len(DefaultOrder))
	for _, s := range DefaultOrder {
		known[s] = struct{}{}
	}

	rank := make(map[Status]int, len(order))
	for i, s := range order {
		if _, ok := known[s]; !ok {
			return nil, fmt.Errorf("unknown status %q in ranking", s)
		}
		if _, dup := rank[s]; dup {
			return nil, fmt.Errorf("status %q listed twice in ranking", s)
		}
		rank[s] = i
	}

	return &Hierarchy{order: append([]Status(nil), order...), rank: rank}, nil
}

type rankingFile struct {
	Ranking []string `yaml:"ranking"`
}

// Load reads a YAML ranking table of the form:
//
//	ranking: [Nouveau, Engagé, Discussion, RDV, Exclu]
//
// An empty path yields the default hierarchy.
func Load(path string) (*Hierarchy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read status ranking: %w", err)
	}
	var file rankingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse status ranking: %w", err)
	}
	order := make([]Status, 0, len(file.Ranking))
	for _, raw := range file.Ranking {
		order = append(order, Status(strings.TrimSpace(raw)))
	}
	return New(order)
}

// Statuses returns the stages in rank order.
func (h *Hierarchy) Statuses() []Status {
	return append([]Status(nil), h.order...)
}

// Lowest is the stage assigned to contacts without a status.
func (h *Hierarchy) Lowest() Status {
	return h.order[0]
}

// Rank returns the position of s, or -1 when s is not a known stage.
func (h *Hierarchy) Rank(s Status) int {
	if r, ok := h.rank[s]; ok {
		return r
	}
	return -1
}

// Parse matches raw against the known stages, ignoring case and surrounding space.
func (h *Hierarchy) Parse(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range h.order {
		if strings.EqualFold(string(s), raw) {
			return s, true
		}
	}
	return "", false
}

// Normalize maps unset or unknown values to the lowest stage.
func (h *Hierarchy) Normalize(raw string) Status {
	if s, ok := h.Parse(raw); ok {
		return s
	}
	return h.Lowest()
}

// Less reports whether a ranks strictly below b.
func (h *Hierarchy) Less(a, b Status) bool {
	return h.rankOrLowest(a) < h.rankOrLowest(b)
}

// MostAdvanced reduces per-contact stages to the single most advanced one.
// An empty list yields the lowest stage.
func (h *Hierarchy) MostAdvanced(statuses []Status) Status {
	best := h.Lowest()
	bestRank := -1
	for _, s := range statuses {
		r := h.rankOrLowest(s)
		if r > bestRank {
			best = h.order[r]
			bestRank = r
		}
	}
	return best
}

func (h *Hierarchy) rankOrLowest(s Status) int {
	if r, ok := h.rank[s]; ok {
		return r
	}
	return 0
}
