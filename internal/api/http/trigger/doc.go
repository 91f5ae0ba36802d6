// Package trigger implements the HTTP ingress of the notifier.
//
// It receives event and confirmation change feeds, fired escalation tasks and
// manual sweep requests, decodes them into domain types and calls into a
// provided dispatch service. Well-formed triggers are always acknowledged with
// 2xx so the upstream never retries a write because a notification failed.
package trigger
