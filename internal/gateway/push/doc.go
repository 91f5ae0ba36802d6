// Package push delivers rendered notification payloads to device destinations
// and reports which destinations were rejected as invalid.
package push
