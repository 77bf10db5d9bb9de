// Package sandbox evaluates third-party embed scripts in a restricted
// goja runtime, one VM per frame context, with execution timeouts and
// captured console output.
package sandbox
