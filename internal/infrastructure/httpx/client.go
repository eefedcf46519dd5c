// Package httpx builds the outbound HTTP client shared by the registry,
// styling, and module-loading collaborators: resty layered on a retrying
// transport.
package httpx

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// Options configures the outbound HTTP client.
type Options struct {
	Timeout  time.Duration
	RetryMax int
}

// New creates an HTTP client with retrying transport and sane timeouts.
func New(opts Options) *resty.Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	client := resty.New()
	client.
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryMax).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("User-Agent", "microshell-runtime/1.0").
		SetTransport(retryClient.HTTPClient.Transport)

	return client
}
