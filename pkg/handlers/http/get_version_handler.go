package http

import (
	"github.com/civiclink/guardrails/pkg/guardrails/input_validation"
	"github.com/civiclink/guardrails/pkg/guardrails/output_sanitization"
	"github.com/civiclink/guardrails/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GuardrailChains lists the active input rules and output redactors in the
// order they run.
type GuardrailChains struct {
	InputRules      []string `json:"input_rules"`
	OutputRedactors []string `json:"output_redactors"`
}

func ChainsOf(validator *input_validation.Validator, sanitizer *output_sanitization.Sanitizer) GuardrailChains {
	chains := GuardrailChains{InputRules: []string{}, OutputRedactors: []string{}}
	if validator != nil {
		for _, rule := range validator.Rules() {
			chains.InputRules = append(chains.InputRules, rule.Name())
		}
	}
	if sanitizer != nil {
		for _, redactor := range sanitizer.Redactors() {
			chains.OutputRedactors = append(chains.OutputRedactors, redactor.Category())
		}
	}
	return chains
}

type versionResponse struct {
	version.Info
	Guardrails GuardrailChains `json:"guardrails"`
}

type getVersionHandler struct {
	logger *logrus.Logger
	chains GuardrailChains
}

func NewGetVersionHandler(logger *logrus.Logger, chains GuardrailChains) Handler {
	return &getVersionHandler{
		logger: logger,
		chains: chains,
	}
}

func (h *getVersionHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(versionResponse{
		Info:       version.GetInfo(),
		Guardrails: h.chains,
	})
}
