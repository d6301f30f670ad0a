package ports

import "context"

// HTTPResult is the outcome of an outbound api_request call.
type HTTPResult struct {
	Status int
	Body   []byte
}

// HTTPCaller performs the outbound request of an api_request node.
// A transport-level failure is returned as an error; a non-2xx status is
// returned as a value so node execution can decide how to store it.
type HTTPCaller interface {
	Request(ctx context.Context, method, url string, headers map[string]string, body []byte) (HTTPResult, error)
}
