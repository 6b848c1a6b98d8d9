// Package htmlextract mines event-like content out of arbitrary HTML
// when no structured feed exists. No two government websites structure
// events alike, so extraction is a cascade of strategies tried in
// order, from precise CSS-selector scans down to full-page pattern
// matching, stopping at the first strategy that yields results.
//
// The extractor also serves as the last-resort fallback for
// misclassified feeds: URLs that look like .ics endpoints but actually
// serve an HTML calendar page.
package htmlextract
