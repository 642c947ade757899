package guardrails

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/civiclink/guardrails/pkg/common"
	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/civiclink/guardrails/pkg/infra/audit"
	"github.com/civiclink/guardrails/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

const GenericErrorMessage = "I'm sorry, something went wrong while processing your request. Please try again."

// auditPublishTimeout caps how long a stage waits on the audit publisher.
const auditPublishTimeout = 250 * time.Millisecond

//go:generate mockery --name=Engine --dir=. --output=./mocks --filename=engine_mock.go --case=underscore --with-expecter
type Engine interface {
	ProcessInput(ctx context.Context, message string) guardrail.ValidationVerdict
	ProcessOutput(ctx context.Context, response string) guardrail.SanitizationResult
	SafeAgentCall(ctx context.Context, agent guardrail.AgentFunc, message string, params map[string]any) guardrail.SafeCallResult
}

type InputValidator interface {
	Validate(message string) guardrail.ValidationVerdict
}

type OutputSanitizer interface {
	Sanitize(response string) guardrail.SanitizationResult
}

type EngineDeps struct {
	Logger    *logrus.Logger
	Validator InputValidator
	Sanitizer OutputSanitizer
	// Publisher is optional; nil drops audit events. Each Publish gets at
	// most auditPublishTimeout; wrap slow sinks in audit.NewAsyncPublisher.
	Publisher audit.Publisher
}

type engine struct {
	logger    *logrus.Logger
	validator InputValidator
	sanitizer OutputSanitizer
	publisher audit.Publisher
}

// NewEngine builds the guardrails engine. It keeps no per-call state and is
// safe for concurrent use.
func NewEngine(deps EngineDeps) Engine {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = audit.NewNopPublisher()
	}
	return &engine{
		logger:    deps.Logger,
		validator: deps.Validator,
		sanitizer: deps.Sanitizer,
		publisher: publisher,
	}
}

func (e *engine) ProcessInput(ctx context.Context, message string) guardrail.ValidationVerdict {
	ctx, requestID := common.EnsureRequestID(ctx)
	verdict := e.validator.Validate(message)
	length := utf8.RuneCountInString(message)

	fields := logrus.Fields{
		"request_id":     requestID,
		"flags":          verdict.Flags,
		"message_length": length,
	}
	if !verdict.IsSafe {
		fields["reason"] = verdict.Reason()
		e.logger.WithFields(fields).Warn("input blocked by guardrails")
		prometheus.InputVerdictsTotal.WithLabelValues("blocked").Inc()
	} else {
		if len(verdict.Flags) > 0 {
			e.logger.WithFields(fields).Info("input flagged by guardrails")
		}
		prometheus.InputVerdictsTotal.WithLabelValues("safe").Inc()
	}
	if prometheus.Config.EnableFlags {
		for _, f := range verdict.Flags {
			prometheus.InputFlagsTotal.WithLabelValues(f).Inc()
		}
	}

	e.publish(ctx, guardrail.AuditEvent{
		RequestID:   requestID,
		Stage:       guardrail.StageInput,
		Blocked:     !verdict.IsSafe,
		Flags:       verdict.Flags,
		InputLength: length,
	})
	return verdict
}

func (e *engine) ProcessOutput(ctx context.Context, response string) guardrail.SanitizationResult {
	ctx, requestID := common.EnsureRequestID(ctx)
	result := e.sanitizer.Sanitize(response)

	if len(result.Redactions) > 0 {
		e.logger.WithFields(logrus.Fields{
			"request_id":      requestID,
			"redactions":      result.Redactions,
			"response_length": utf8.RuneCountInString(response),
		}).Info("output redacted by guardrails")
	}
	if prometheus.Config.EnableRedactions {
		for _, c := range result.Redactions {
			prometheus.OutputRedactionsTotal.WithLabelValues(c).Inc()
		}
	}

	e.publish(ctx, guardrail.AuditEvent{
		RequestID:    requestID,
		Stage:        guardrail.StageOutput,
		Redactions:   result.Redactions,
		InputLength:  utf8.RuneCountInString(response),
		OutputLength: utf8.RuneCountInString(result.SanitizedResponse),
	})
	return result
}

// SafeAgentCall validates message, invokes agent with the sanitized text and
// sanitizes whatever comes back. Agent errors and panics never escape; the
// caller gets a generic apology and the error string instead. ctx is passed
// to agent untouched.
func (e *engine) SafeAgentCall(
	ctx context.Context,
	agent guardrail.AgentFunc,
	message string,
	params map[string]any,
) guardrail.SafeCallResult {
	ctx, requestID := common.EnsureRequestID(ctx)

	verdict := e.ProcessInput(ctx, message)
	if !verdict.IsSafe {
		return guardrail.SafeCallResult{
			Response:         verdict.Reason(),
			Blocked:          true,
			InputFlags:       nonNil(verdict.Flags),
			OutputRedactions: []string{},
		}
	}

	start := time.Now()
	resp, err := e.invoke(ctx, agent, verdict.SanitizedMessage, params)
	if prometheus.Config.EnableLatency {
		prometheus.AgentLatency.Observe(float64(time.Since(start).Milliseconds()))
	}
	if err != nil {
		prometheus.AgentCallsTotal.WithLabelValues("error").Inc()
		e.publish(ctx, guardrail.AuditEvent{
			RequestID:   requestID,
			Stage:       guardrail.StageAgent,
			Flags:       verdict.Flags,
			InputLength: utf8.RuneCountInString(verdict.SanitizedMessage),
			AgentFailed: true,
		})
		errText := err.Error()
		return guardrail.SafeCallResult{
			Response:         GenericErrorMessage,
			Blocked:          false,
			InputFlags:       nonNil(verdict.Flags),
			OutputRedactions: []string{},
			Error:            &errText,
		}
	}
	prometheus.AgentCallsTotal.WithLabelValues("ok").Inc()

	result := e.ProcessOutput(ctx, ResponseText(resp))
	return guardrail.SafeCallResult{
		Response:         result.SanitizedResponse,
		Blocked:          false,
		InputFlags:       nonNil(verdict.Flags),
		OutputRedactions: nonNil(result.Redactions),
	}
}

func (e *engine) invoke(
	ctx context.Context,
	agent guardrail.AgentFunc,
	message string,
	params map[string]any,
) (resp guardrail.AgentResponse, err error) {
	requestID := common.RequestID(ctx)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", guardrail.ErrAgentPanic, r)
			e.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"panic":      fmt.Sprint(r),
				"stack":      string(debug.Stack()),
			}).Error("agent call panicked")
		}
	}()

	resp, err = agent(ctx, message, params)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error_type": fmt.Sprintf("%T", err),
		}).WithError(err).Error("agent call failed")
	}
	return resp, err
}

func (e *engine) publish(ctx context.Context, ev guardrail.AuditEvent) {
	ev.OccurredAt = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditPublishTimeout)
	defer cancel()
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.WithFields(logrus.Fields{
			"request_id": ev.RequestID,
			"stage":      ev.Stage,
		}).WithError(err).Warn("failed to publish audit event")
	}
}

// ResponseText extracts the text to sanitize from an agent reply. A
// Structured reply yields its "response" field; non-string values are
// rendered as JSON and a reply without the field is rendered whole.
func ResponseText(resp guardrail.AgentResponse) string {
	switch r := resp.(type) {
	case guardrail.PlainText:
		return string(r)
	case guardrail.Structured:
		if v, ok := r[guardrail.ResponseKey]; ok {
			switch s := v.(type) {
			case string:
				return s
			case nil:
				return ""
			default:
				return renderJSON(s)
			}
		}
		return renderJSON(map[string]any(r))
	default:
		return ""
	}
}

func renderJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
