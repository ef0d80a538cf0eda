package generation

import "errors"

// Generation errors.
var (
	// ErrInvalidConfig indicates the generator was constructed with missing
	// or malformed configuration. Fails startup, never degrades silently.
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyRequest indicates the request carried no content to
	// summarize or no models to try.
	ErrEmptyRequest = errors.New("empty generation request")

	// ErrAllModelsFailed indicates every model in the pipeline failed. The
	// dispatcher treats this as a transient task failure eligible for
	// retry under the queue's backoff policy.
	ErrAllModelsFailed = errors.New("all models in the pipeline failed")

	// ErrEmptyResponse indicates a model answered with no usable content.
	ErrEmptyResponse = errors.New("model returned an empty response")
)
