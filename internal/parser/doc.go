// Package parser converts raw feed bytes of a known format into
// normalized event records. Parsers are pure with respect to the
// network: they receive bytes, never fetch.
//
// All parsers share the same output contract: only events starting in
// the future are kept (feeds are forward-looking), output is capped to
// bound downstream load, and missing fields fall back to defaults
// derived from the owning source.
package parser
