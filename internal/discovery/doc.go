// Package discovery finds calendar feeds for a locality with no prior
// knowledge of its websites: it generates plausible organizational
// domains, validates that they are live and not parked, probes them
// for feed endpoints, and classifies and scores whatever it finds.
package discovery
