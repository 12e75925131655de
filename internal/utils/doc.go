// Package utils provides the default HTTP transport and the SSE line scanner
// used by provider adapters.
package utils
