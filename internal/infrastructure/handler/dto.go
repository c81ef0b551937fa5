package handler

// BuildTransactionRequest represents the request body accepted by the sandbox build endpoint
type BuildTransactionRequest struct {
	ChangeAddress string   `json:"changeAddress"`
	Message       string   `json:"message,omitempty"`
	Utxos         []string `json:"utxos,omitempty"`
	Outputs       []struct {
		Address  string `json:"address"`
		Lovelace uint64 `json:"lovelace"`
	} `json:"outputs"`
}

// BuildTransactionResponse represents the sandbox's answer to a build request
type BuildTransactionResponse struct {
	Type    string `json:"type"`
	CborHex string `json:"cborHex"`
}

// HealthResponse represents the response for the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}
