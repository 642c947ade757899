package server

import (
	"errors"
	"fmt"

	"github.com/civiclink/guardrails/pkg/config"
	"github.com/civiclink/guardrails/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	GuardrailsServerDI struct {
		Config  *config.Config
		Logger  *logrus.Logger
		Routers []router.ServerRouter
	}
	GuardrailsServer struct {
		*BaseServer
	}
)

func NewGuardrailsServer(di GuardrailsServerDI) *GuardrailsServer {
	return &GuardrailsServer{
		BaseServer: NewBaseServer(di.Config, di.Logger).WithRouters(di.Routers...),
	}
}

func (s *GuardrailsServer) Run() error {
	s.runMetrics()
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting guardrails server")
	return s.Router.Listen(addr)
}

func (s *GuardrailsServer) Shutdown() error {
	return errors.Join(s.Router.Shutdown(), s.shutdownMetrics())
}
