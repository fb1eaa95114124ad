package errorpages_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	errorpages "github.com/dgduncan/go-error-pages"
)

type fakeExchange struct {
	status    int
	committed bool
	isError   bool
	written   int64
	message   string
	async     bool
	err       error

	resets int
}

func (f *fakeExchange) Status() int           { return f.status }
func (f *fakeExchange) SetStatus(code int)    { f.status = code }
func (f *fakeExchange) Committed() bool       { return f.committed }
func (f *fakeExchange) IsError() bool         { return f.isError }
func (f *fakeExchange) SetError()             { f.isError = true }
func (f *fakeExchange) ContentWritten() int64 { return f.written }
func (f *fakeExchange) Message() string       { return f.message }
func (f *fakeExchange) Async() bool           { return f.async }
func (f *fakeExchange) Err() error            { return f.err }

func (f *fakeExchange) Reset() {
	f.resets++
	f.status = http.StatusOK
	f.isError = false
	f.written = 0
	f.message = ""
}

func TestNeedsErrorPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		exchange       *fakeExchange
		expected       bool
		expectedStatus int
		expectedResets int
	}{
		{
			name:           "committed response",
			exchange:       &fakeExchange{status: 500, committed: true, isError: true},
			expected:       false,
			expectedStatus: 500,
		},
		{
			name:           "ok without content",
			exchange:       &fakeExchange{status: 200},
			expected:       false,
			expectedStatus: 200,
		},
		{
			name:           "ok with content",
			exchange:       &fakeExchange{status: 200, written: 42},
			expected:       false,
			expectedStatus: 200,
		},
		{
			name:           "ok flagged as error",
			exchange:       &fakeExchange{status: 200, isError: true},
			expected:       false,
			expectedStatus: 200,
		},
		{
			name:           "error status flagged as error",
			exchange:       &fakeExchange{status: 404, isError: true},
			expected:       true,
			expectedStatus: 404,
		},
		{
			name:           "error status not flagged as error",
			exchange:       &fakeExchange{status: 404},
			expected:       false,
			expectedStatus: 404,
		},
		{
			name:           "error status with content already written",
			exchange:       &fakeExchange{status: 404, isError: true, written: 12},
			expected:       false,
			expectedStatus: 404,
		},
		{
			name:           "non standard status without message",
			exchange:       &fakeExchange{status: 599, isError: true},
			expected:       false,
			expectedStatus: 599,
		},
		{
			name:           "non standard status with message",
			exchange:       &fakeExchange{status: 599, isError: true, message: "upstream gave up"},
			expected:       true,
			expectedStatus: 599,
		},
		{
			name:           "async in flight",
			exchange:       &fakeExchange{status: 200, async: true},
			expected:       false,
			expectedStatus: 200,
		},
		{
			name:           "async with attached error",
			exchange:       &fakeExchange{status: 200, async: true, err: errors.New("boom")},
			expected:       true,
			expectedStatus: 500,
			expectedResets: 1,
		},
		{
			name:           "attached error forces internal server error",
			exchange:       &fakeExchange{status: 404, isError: true, message: "not here", err: errors.New("boom")},
			expected:       true,
			expectedStatus: 500,
			expectedResets: 1,
		},
		{
			name:           "attached error on committed response",
			exchange:       &fakeExchange{status: 200, committed: true, written: 3, err: errors.New("boom")},
			expected:       false,
			expectedStatus: 200,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, errorpages.NeedsErrorPage(tt.exchange))
			assert.Equal(t, tt.expectedStatus, tt.exchange.Status())
			assert.Equal(t, tt.expectedResets, tt.exchange.resets)
		})
	}
}
