// Package tracing provides OpenTelemetry tracing integration.
//
// The HTTP middleware extracts W3C trace context from incoming requests and
// opens a server span; use cases open internal spans with StartSpan around
// searches, remote API calls and store writes.
//
// Example usage:
//
//	func (s *Service) Search(ctx context.Context, q string) (Result, error) {
//	    ctx, span := tracing.StartSpan(ctx, "search.Search", attribute.String("query", q))
//	    defer span.End()
//	    // ...
//	}
package tracing
