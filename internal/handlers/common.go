package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/nimasrn/payment-tracker/internal/repository"
	xhttp "github.com/nimasrn/payment-tracker/pkg/http"
	"github.com/nimasrn/payment-tracker/pkg/pg"
)

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return xhttp.StatusBadRequest
	case errors.Is(err, repository.ErrPaymentNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, pg.ErrNoConnection):
		return xhttp.StatusServiceUnavailable
	}
	return xhttp.StatusInternalServerError
}

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	writeError(ctx, statusFor(err), err.Error())
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func form(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.PostArgs().Peek(key))
}
