// Package event defines the normalized event record produced by every
// feed parser and by the HTML extractor. An Event is immutable once
// built; ownership passes to the event store.
package event
