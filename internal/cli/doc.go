// Package cli implements the civiccal command line interface.
package cli
