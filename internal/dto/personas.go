package dto

// PersonaRequest creates or replaces a persona. A nil position appends it last.
type PersonaRequest struct {
	Name          string `json:"name"`
	Service       string `json:"service"`
	DecisionLevel string `json:"decision_level"`
	Position      *int   `json:"position,omitempty"`
}
