// Package logger wraps zap for the notifier:
//   - a global sugared logger with console or JSON encoding,
//   - context helpers (ToContext/FromContext/WithName/WithKV) so every trigger
//     invocation logs with its own correlation fields,
//   - level parsing and the usual convenience functions (Infof, ErrorKV, etc.).
//
// Services accept a context and extract the logger from it.
package logger
