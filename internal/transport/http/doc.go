// Package http contains the chi HTTP handlers. Handlers translate
// queries and multipart bodies into service calls and render results
// with go-chi/render; errors go through the RFC 7807 error handler.
package http
