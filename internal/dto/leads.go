package dto

// UpdateLeadStatusRequest sets the free-form pipeline label of a lead.
type UpdateLeadStatusRequest struct {
	Status string `json:"status"`
}

// SignalRequest is posted by the signal detector to flag a company as a hot lead.
type SignalRequest struct {
	UserID    string  `json:"user_id"`
	CompanyID string  `json:"company_id"`
	Summary   *string `json:"summary,omitempty"`
}
