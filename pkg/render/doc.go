// Package render turns submission phases into markup. A View describes what
// the results container should show (loading, scores or an error) and a
// Renderer produces the bytes for a given front-end: HTML fragments and pages
// for the web, plain text for terminals.
package render
