// Package parse provides lenient string-to-value parsing with automatic JSON
// repair, used for tool-call argument strings produced by models.
package parse
