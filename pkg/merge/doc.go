// Package merge drives the per-row mail merge of a campaign: structural
// validation, a single connection probe, then a strictly sequential send
// loop over the recipient rows with per-row error isolation.
//
// The central design decision is that one bad row must never abort a
// campaign. Anything that goes wrong after the probe — an empty or invalid
// rendered address, a rejected send, even a panic while processing one row —
// is absorbed into that row's outcome, and the loop continues. Only
// structural input errors and probe failures reject the request as a whole,
// and both happen before any message is sent.
//
// Rows are processed one at a time over one exclusively-owned SMTP
// connection. Sequential sending is deliberate: relays commonly reject
// bursts of parallel connections from a single credential.
package merge
