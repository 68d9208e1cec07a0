package contamination

import "errors"

var (
	// ErrScoringFailure means no usable score could be produced. Pickup
	// creation aborts on it.
	ErrScoringFailure = errors.New("contamination scoring failed")

	// ErrUpstreamUnavailable marks transport failures and timeouts talking to
	// a provider. It is transient and eligible for the buffer fallback.
	ErrUpstreamUnavailable = errors.New("scoring provider unavailable")

	// ErrMalformedResponse marks a provider reply that could not be parsed
	// into a score.
	ErrMalformedResponse = errors.New("malformed scoring response")

	// ErrNoImage is returned when neither a URL nor image bytes were given.
	ErrNoImage = errors.New("no image to score")
)
