// Package mailer provides the SMTP transport used by the merge engine.
//
// A Transport is request-scoped: it is built from a single SenderConfig,
// owned exclusively by one campaign run, and must be closed on every exit
// path. Verify performs the one-time connection probe with a bounded wait
// and classifies failures (timeout, invalid credentials, connection refused)
// so callers can surface a human-actionable reason without any row having
// been sent.
package mailer
