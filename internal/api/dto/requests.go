package dto

import "encoding/json"

// CreateRunRequest workflow pode ser objeto JSON ou string com o documento YAML.
type CreateRunRequest struct {
	Workflow json.RawMessage `json:"workflow"`
	Async    bool            `json:"async"`
}
