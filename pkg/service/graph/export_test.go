package graph

var (
	RetryAfter = retryAfter
	Truncate   = truncate
)
