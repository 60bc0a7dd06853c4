package xhttp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func newCtx(path string) *RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI(path)
	return ctx
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(func(ctx *RequestCtx) { seen = RequestID(ctx) })

	ctx := newCtx("/")
	h(ctx)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, string(ctx.Response.Header.Peek(HeaderRequestID)))

	ctx = newCtx("/")
	ctx.Request.Header.Set(HeaderRequestID, "abc-123")
	h(ctx)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", string(ctx.Response.Header.Peek(HeaderRequestID)))
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(ctx *RequestCtx) { panic("boom") })

	ctx := newCtx("/")
	assert.NotPanics(t, func() { h(ctx) })
	assert.Equal(t, StatusInternalServerError, ctx.Response.StatusCode())
}

func TestRequestLoggerMiddleware(t *testing.T) {
	called := 0
	h := RequestLoggerMiddleware(func(ctx *RequestCtx) {
		called++
		ctx.SetStatusCode(StatusNotFound)
	})

	h(newCtx("/api/v1/payments"))
	h(newCtx("/api/v1/health"))
	assert.Equal(t, 2, called)
	assert.True(t, shouldSkip("/metrics"))
	assert.False(t, shouldSkip("/"))
}

func TestEngine_HandlerOrder(t *testing.T) {
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}

	e := CreateServer()
	e.GET("/ping", func(ctx *RequestCtx) {
		order = append(order, "handler")
		ctx.SetStatusCode(StatusOK)
	})
	e.Use(mark("first"))
	e.Use(mark("second"))

	ctx := newCtx("/ping")
	e.Handler()(ctx)

	assert.Equal(t, []string{"first", "second", "handler"}, order)
	assert.Equal(t, StatusOK, ctx.Response.StatusCode())
}

func TestNotFoundHandler(t *testing.T) {
	e := CreateServer()
	ctx := newCtx("/nowhere")
	e.Handler()(ctx)
	assert.Equal(t, StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "Not Found", StatusText(StatusNotFound))
}
