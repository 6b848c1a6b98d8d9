// Package source models calendar sources: the organizations whose
// feeds the pipeline discovers and collects from, the feed formats they
// publish, and the fixed quality ranking between those formats.
package source
