// Package ui holds the small terminal helpers mactop's one-shot commands use
// outside the dashboard: status symbols, a color palette and a spinner that
// reports on stderr while collectors warm up.
package ui
