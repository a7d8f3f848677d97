// Package tailnet runs an embedded Tailscale node (tsnet) so quill can reach
// a content API that is only exposed on a tailnet. When tailscale.enabled is
// set, the articles client is built on Node.HTTPClient instead of the default
// transport.
package tailnet
