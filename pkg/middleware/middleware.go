package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

// Transport lists the global middlewares in the order they are installed.
type Transport struct {
	PanicRecoverMiddleware Middleware
	CORSMiddleware         Middleware
	RequestIDMiddleware    Middleware
	MetricsMiddleware      Middleware
}

func (t *Transport) GetMiddlewares() []interface{} {
	var handlers []interface{}
	for _, m := range []Middleware{
		t.PanicRecoverMiddleware,
		t.CORSMiddleware,
		t.RequestIDMiddleware,
		t.MetricsMiddleware,
	} {
		if m != nil {
			handlers = append(handlers, m.Middleware())
		}
	}
	return handlers
}
