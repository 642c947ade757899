package request

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrMessageRequired  = errors.New("message is required")
	ErrResponseRequired = errors.New("response is required")
)

var supportedChannels = []string{"web", "whatsapp", "sms", "ussd"}

type ValidateRequest struct {
	Message *string `json:"message"`
}

func (r *ValidateRequest) Validate() error {
	if r.Message == nil {
		return ErrMessageRequired
	}
	return nil
}

type SanitizeRequest struct {
	Response *string `json:"response"`
}

func (r *SanitizeRequest) Validate() error {
	if r.Response == nil {
		return ErrResponseRequired
	}
	return nil
}

type ChatRequest struct {
	Message *string        `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// ChatContext is the part of the free-form chat context the service itself
// reads. Every other key goes to the agent untouched.
type ChatContext struct {
	TenantID string `mapstructure:"tenant_id"`
	Channel  string `mapstructure:"channel"`
	Language string `mapstructure:"language"`
}

func (r *ChatRequest) Validate() error {
	if r.Message == nil {
		return ErrMessageRequired
	}
	return nil
}

func (r *ChatRequest) DecodeContext() (ChatContext, error) {
	var out ChatContext
	if len(r.Context) == 0 {
		return out, nil
	}
	if err := mapstructure.Decode(r.Context, &out); err != nil {
		return ChatContext{}, err
	}
	if out.Channel != "" && !slices.Contains(supportedChannels, out.Channel) {
		return ChatContext{}, fmt.Errorf("unsupported channel: %s", out.Channel)
	}
	return out, nil
}
