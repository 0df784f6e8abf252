package dto

// ListFilter carries the view controls shared by the companies, market and
// prospects listings.
type ListFilter struct {
	ShowHidden    bool
	CategoryField string
	Category      string
	Q             string
	Status        string
	Sort          string
	Desc          bool
	Page          int
	PerPage       int
}

// SummaryRequest replaces a company summary. A null or blank summary clears it.
type SummaryRequest struct {
	Summary *string `json:"summary"`
}
