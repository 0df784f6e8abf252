package dto

// TargetingRequest creates or replaces a saved targeting.
type TargetingRequest struct {
	Name         string   `json:"name"`
	Departments  []string `json:"departments"`
	Sectors      []string `json:"sectors"`
	MinHeadcount *int64   `json:"min_headcount,omitempty"`
	MaxHeadcount *int64   `json:"max_headcount,omitempty"`
	MinRevenue   *int64   `json:"min_revenue,omitempty"`
	MaxRevenue   *int64   `json:"max_revenue,omitempty"`
}
