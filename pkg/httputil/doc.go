// Package httputil provides the HTTP plumbing used to fetch manifests,
// declaration files and archives from remote applications.
//
// # Overview
//
//   - [Client]: GET requests with status mapping, optional retries and
//     observability hooks
//   - [Retry]: Retry with exponential backoff for transient failures
//   - [NewHTTPClient]: *http.Client with timeout and opt-in insecure TLS
//
// # Errors
//
// Every failure returned by [Client] carries a code from pkg/errors:
//
//   - NOT_FOUND for a 404 response
//   - TIMEOUT when the request context expires
//   - NETWORK for connection failures and any other non-200 status
//
// Connection failures and 5xx responses are wrapped in [RetryableError].
//
// # Retry
//
// Retries are off by default; a client created with WithRetries(n) makes
// up to n additional attempts, doubling the delay after each one:
//
//	client := httputil.NewClient(httputil.NewHTTPClient(30*time.Second, false),
//	    httputil.WithRetries(2))
//	data, err := client.Fetch(ctx, "https://cdn.example.com/v2/@types.json")
package httputil
