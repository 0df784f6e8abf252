package dto

// GrantCreditsRequest adds credits to a user balance.
type GrantCreditsRequest struct {
	Amount int `json:"amount"`
}

// CreditsResponse reports a balance.
type CreditsResponse struct {
	Balance int `json:"balance"`
}
