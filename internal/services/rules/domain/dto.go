package domain

// CreateInput is the body for creating a rule
type CreateInput struct {
	Pattern  string `json:"pattern" example:"AMZN Mktp"`
	IsRegex  bool   `json:"is_regex" example:"false"`
	Category string `json:"category" example:"Shopping:Online"`
}

// UpdateInput replaces a rule's content
type UpdateInput struct {
	Pattern  string `json:"pattern"`
	IsRegex  bool   `json:"is_regex"`
	Category string `json:"category"`
}

// ApplyInput is a batch of transactions to categorize
type ApplyInput struct {
	Transactions []Transaction `json:"transactions" validate:"required,max=10000"`
}

// ValidateInput asks whether a regex pattern would be accepted
type ValidateInput struct {
	Pattern string `json:"pattern"`
}

// ValidateResult reports a pattern check
type ValidateResult struct {
	OK      bool   `json:"ok"`
	Kind    string `json:"kind"`
	Feature string `json:"feature,omitempty"`
	Message string `json:"message,omitempty"`
}
