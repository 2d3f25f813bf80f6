// Package assistant provides book recommendations from a generative model.
//
// The model's API key lives only in the proxy process (folio
// assistant-proxy), which reads it from the environment. The TUI talks to the
// proxy through Client and never sees the key.
//
//	TUI ── Client.Recommend ──> Proxy /v1/recommend ──> generateContent
//
// If the proxy cannot be reached, or is running without a key, Client falls
// back to CannedReply so the assistant view always answers.
package assistant
