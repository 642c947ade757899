package guardrail

// Input flags, in the order the default validation chain can raise them.
const (
	FlagMessageTooLong    = "message_too_long"
	FlagEmptyMessage      = "empty_message"
	FlagPromptInjection   = "prompt_injection_detected"
	FlagHTMLStripped      = "html_stripped"
	FlagSuspiciousContent = "suspicious_content"
)

// Output redaction categories.
const (
	CategorySAIDNumber    = "sa_id_number"
	CategoryPhoneNumber   = "phone_number"
	CategoryEmailAddress  = "email_address"
	CategorySystemInfo    = "system_info"
	CategoryEmptyFallback = "empty_response_fallback"
)

// ValidationVerdict is the outcome of running one inbound message through the
// input chain. SanitizedMessage must not be forwarded when IsSafe is false.
type ValidationVerdict struct {
	IsSafe           bool     `json:"is_safe"`
	OriginalMessage  string   `json:"original_message"`
	SanitizedMessage string   `json:"sanitized_message"`
	Flags            []string `json:"flags"`
	BlockedReason    *string  `json:"blocked_reason"`
}

// Reason returns the blocked reason or an empty string for safe verdicts.
func (v ValidationVerdict) Reason() string {
	if v.BlockedReason == nil {
		return ""
	}
	return *v.BlockedReason
}

// HasFlag reports whether the named flag was raised.
func (v ValidationVerdict) HasFlag(flag string) bool {
	for _, f := range v.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SanitizationResult is the outcome of the output chain. Redactions holds each
// category at most once, in the order it was first applied.
type SanitizationResult struct {
	OriginalResponse  string   `json:"original_response"`
	SanitizedResponse string   `json:"sanitized_response"`
	Redactions        []string `json:"redactions"`
}

// SafeCallResult is what the engine hands back to the transport layer. Field
// names are part of the wire contract.
type SafeCallResult struct {
	Response         string   `json:"response"`
	Blocked          bool     `json:"blocked"`
	InputFlags       []string `json:"input_flags"`
	OutputRedactions []string `json:"output_redactions"`
	Error            *string  `json:"error,omitempty"`
}
