package xhttp

import (
	"crypto/tls"
	"reflect"
	"runtime"
	"slices"
	"time"

	"github.com/nimasrn/payment-tracker/pkg/logger"
	"github.com/valyala/fasthttp"
)

var DefaultServerOption = ServerOption{
	IdleTimeout:        time.Second * 10,
	MaxRequestBodySize: 1 * 1024 * 1024,
	ReadBufferSize:     1024 * 4,
	WriteBufferSize:    1024 * 4,
	ReadTimeout:        time.Millisecond * 2500,
	WriteTimeout:       time.Millisecond * 2500,
	Concurrency:        10_000,
	ErrorHandler: func(ctx *RequestCtx, err error) {
		logger.Warn("[xhttp] request error", "error", err)
	},
	CloseOnShutdown: true,
}

type ServerOption struct {
	Name string

	// IdleTimeout bounds keep-alive connections so idle clients do not pile
	// up open files.
	IdleTimeout time.Duration

	// dashboard forms are tiny, anything bigger is rejected
	MaxRequestBodySize int

	ReadBufferSize  int
	WriteBufferSize int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	Concurrency     int

	ErrorHandler    func(ctx *RequestCtx, err error)
	CloseOnShutdown bool
	TLSConfig       *tls.Config
}

type Engine struct {
	*Router
	*fasthttp.Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(options ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Name:                  options.Name,
		ErrorHandler:          options.ErrorHandler,
		Concurrency:           options.Concurrency,
		ReadBufferSize:        options.ReadBufferSize,
		WriteBufferSize:       options.WriteBufferSize,
		ReadTimeout:           options.ReadTimeout,
		WriteTimeout:          options.WriteTimeout,
		IdleTimeout:           options.IdleTimeout,
		MaxRequestBodySize:    options.MaxRequestBodySize,
		CloseOnShutdown:       options.CloseOnShutdown,
		NoDefaultServerHeader: true,
		TLSConfig:             options.TLSConfig,
		Logger:                logger.GetLogger(),
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: NewRouter(),
		option: options,
	}
}

func CreateServer() *Engine {
	s := NewServer(DefaultServerOption)
	s.Router = CreateDefaultRouter()
	return s
}

// Handler returns the routed handler wrapped in the registered middleware.
// The first middleware passed to Use is the outermost one.
func (e *Engine) Handler() RequestHandler {
	h := e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for _, m := range middle {
		h = m(h)
	}
	return h
}

func (e *Engine) ListenAndServe(addr string) error {
	for method, routes := range e.Router.List() {
		for _, r := range routes {
			logger.Debug("[xhttp] route registered", "method", method, "path", r)
		}
	}
	for i, m := range e.middle {
		logger.Debug("[xhttp] middleware registered", "position", i+1, "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = e.Handler()
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

// Use adds middleware to the chain which is run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown gracefully shuts down the server without interrupting any active connections.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down")
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
