package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_DecodeContext(t *testing.T) {
	msg := "hello"

	tests := []struct {
		name      string
		context   map[string]any
		expect    ChatContext
		expectErr bool
	}{
		{name: "no context", context: nil, expect: ChatContext{}},
		{
			name:    "known keys decoded, others ignored",
			context: map[string]any{"tenant_id": "joburg", "channel": "sms", "language": "zu", "ward": 12},
			expect:  ChatContext{TenantID: "joburg", Channel: "sms", Language: "zu"},
		},
		{name: "wrong type", context: map[string]any{"language": []string{"en"}}, expectErr: true},
		{name: "unsupported channel", context: map[string]any{"channel": "carrier-pigeon"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ChatRequest{Message: &msg, Context: tt.context}
			require.NoError(t, req.Validate())

			got, err := req.DecodeContext()
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestRequests_Validate(t *testing.T) {
	empty := ""

	assert.ErrorIs(t, (&ValidateRequest{}).Validate(), ErrMessageRequired)
	assert.NoError(t, (&ValidateRequest{Message: &empty}).Validate())
	assert.ErrorIs(t, (&SanitizeRequest{}).Validate(), ErrResponseRequired)
	assert.NoError(t, (&SanitizeRequest{Response: &empty}).Validate())
	assert.ErrorIs(t, (&ChatRequest{}).Validate(), ErrMessageRequired)
}
