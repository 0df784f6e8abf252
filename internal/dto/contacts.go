package dto

// GenerateContactsRequest asks for count new contacts on a lead, produced by
// the selected personas in position order.
type GenerateContactsRequest struct {
	Count      int      `json:"count"`
	PersonaIDs []string `json:"persona_ids"`
}

// UpdateContactRequest patches user-editable contact fields. FollowUpDate uses
// YYYY-MM-DD; an empty string clears it.
type UpdateContactRequest struct {
	Status       *string `json:"status,omitempty"`
	Note         *string `json:"note,omitempty"`
	FollowUpDate *string `json:"follow_up_date,omitempty"`
}

// ContactGenerationRequest is the payload sent to the contact-generation worker.
type ContactGenerationRequest struct {
	Company  GenerationCompany `json:"company"`
	Persona  GenerationPersona `json:"persona"`
	Count    int               `json:"count"`
	Exclude  []string          `json:"exclude,omitempty"`
	Language string            `json:"language,omitempty"`
}

type GenerationCompany struct {
	Name       string  `json:"name"`
	Sector     string  `json:"sector"`
	Department string  `json:"department"`
	Website    *string `json:"website,omitempty"`
	LinkedIn   *string `json:"linkedin,omitempty"`
	RegistryID *string `json:"siret,omitempty"`
}

type GenerationPersona struct {
	Name          string `json:"name"`
	Service       string `json:"service"`
	DecisionLevel string `json:"decision_level"`
}

// GeneratedContact is one raw contact returned by the worker.
type GeneratedContact struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
}
