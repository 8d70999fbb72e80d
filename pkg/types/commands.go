package types

import "time"

// RunCommand pede a um worker que execute um documento de workflow
type RunCommand struct {
	RunID     string    `json:"run_id"`
	Document  Data      `json:"document"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
