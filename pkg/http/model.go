package http

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  int    `json:"status" example:"202"`
	Message string `json:"message" example:"Accepted"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string         `json:"code,omitempty" example:"ERR_LTE"`
	Field   string         `json:"field,omitempty" example:"Limit"`
	Message string         `json:"message,omitempty" example:"Limit must be less than or equal to 1000"`
	Params  map[string]any `json:"params,omitempty"`
}
