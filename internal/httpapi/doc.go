// Package httpapi exposes the resolution engine over HTTP.
//
// Write operations live under /v1 and take the acting user from the
// X-Actor-Id header; authentication is handled upstream. Reads are
// served live over /v1/subscribe as server-sent events, mirroring the
// subscription hub's snapshot-then-diffs contract. Errors use one JSON
// shape with the workflow error code, mapped onto HTTP status codes.
package httpapi
