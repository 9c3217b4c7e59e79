// Package middleware provides HTTP middleware for the gallery server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with bounded path labels
//   - gzip compression for JSON and text responses
//   - CORS headers and preflight handling for cross-origin front ends
package middleware
