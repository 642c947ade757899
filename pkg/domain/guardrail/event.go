package guardrail

import "time"

type Stage string

const (
	StageInput  Stage = "input"
	StageAgent  Stage = "agent"
	StageOutput Stage = "output"
)

// AuditEvent records what a guardrail stage detected or changed. It carries
// lengths and labels only, never message content.
type AuditEvent struct {
	RequestID    string    `json:"request_id"`
	Stage        Stage     `json:"stage"`
	Blocked      bool      `json:"blocked"`
	Flags        []string  `json:"flags,omitempty"`
	Redactions   []string  `json:"redactions,omitempty"`
	InputLength  int       `json:"input_length"`
	OutputLength int       `json:"output_length"`
	AgentFailed  bool      `json:"agent_failed,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
