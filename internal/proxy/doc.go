// Package proxy forwards browser-widget HTTP traffic to the knowledge
// box without exposing the service credential. Two mount points (a
// rewritten-path style and a REST style) funnel into one forwarding
// core so behavior cannot diverge between them. Download paths stream
// chunk by chunk; everything else is buffered and passed through.
package proxy
