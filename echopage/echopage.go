// Package echopage plugs error pages into an echo pipeline.
//
// echo commits a response on the first write, so the pages replace errors
// returned by handlers: an *echo.HTTPError selects the page for its code and
// any other error is answered with the 500 page.
package echopage

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	errorpages "github.com/dgduncan/go-error-pages"
)

// Middleware returns an echo middleware rendering the pages of pages for
// errors returned by the next handler. Errors the pages do not handle, for
// example because the response was already committed, are returned unchanged.
func Middleware(pages *errorpages.ErrorPages) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			if pages.Intercept(newExchange(c.Response(), err), c.Response(), c.Request()) {
				return nil
			}
			return err
		}
	}
}

type exchange struct {
	res *echo.Response

	status  int
	isError bool
	message string
	err     error
}

func newExchange(res *echo.Response, err error) *exchange {
	ex := &exchange{res: res, status: res.Status}

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		ex.status = he.Code
		ex.isError = true
		if he.Message != nil {
			ex.message = fmt.Sprint(he.Message)
		}
	case err != nil:
		ex.err = err
	}

	return ex
}

func (ex *exchange) Status() int { return ex.status }

func (ex *exchange) SetStatus(code int) { ex.status = code }

func (ex *exchange) Committed() bool { return ex.res.Committed }

func (ex *exchange) IsError() bool { return ex.isError }

func (ex *exchange) SetError() { ex.isError = true }

func (ex *exchange) ContentWritten() int64 { return ex.res.Size }

func (ex *exchange) Message() string { return ex.message }

func (ex *exchange) Reset() {
	h := ex.res.Header()
	for k := range h {
		delete(h, k)
	}

	ex.status = http.StatusOK
	ex.isError = false
	ex.message = ""
}

func (ex *exchange) Async() bool { return false }

func (ex *exchange) Err() error { return ex.err }

var _ errorpages.Exchange = (*exchange)(nil)
