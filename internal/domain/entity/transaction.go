package entity

import (
	"bytes"
	"encoding/json"
	"time"
)

// LovelacePerAda is the number of lovelace in one ada
const LovelacePerAda = 1_000_000

// Output is a single payment in a build request
type Output struct {
	Address  string `json:"address"`
	Lovelace uint64 `json:"lovelace"`
}

// BuildRequest is the body sent to the transaction-building service.
// ChangeAddress receives whatever value is left over once the outputs are paid.
// Message is attached as transaction metadata. Utxos are hex-encoded UTxOs the
// service spends instead of looking up the change address itself.
type BuildRequest struct {
	ChangeAddress string   `json:"changeAddress"`
	Message       string   `json:"message,omitempty"`
	Utxos         []string `json:"utxos,omitempty"`
	Outputs       []Output `json:"outputs"`
}

// NewBuildRequest creates a build request paying the given outputs in order
func NewBuildRequest(changeAddress string, outputs ...Output) *BuildRequest {
	if outputs == nil {
		outputs = []Output{}
	}

	return &BuildRequest{
		ChangeAddress: changeAddress,
		Outputs:       outputs,
	}
}

// TotalLovelace sums the amounts of all outputs
func (r *BuildRequest) TotalLovelace() uint64 {
	var total uint64
	for _, o := range r.Outputs {
		total += o.Lovelace
	}
	return total
}

// BuildResult holds the service's answer. Body is the untyped JSON value the
// service returned, decoded with json.Number so integers survive unchanged.
type BuildResult struct {
	StatusCode int
	Body       interface{}
}

// Pretty renders the body as indented JSON
func (r *BuildResult) Pretty() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(r.Body); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// BuildRecord is a persisted build attempt
type BuildRecord struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Request    BuildRequest    `json:"request"`
	StatusCode int             `json:"status_code"`
	Response   json.RawMessage `json:"response"`
}
