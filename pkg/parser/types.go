// Package parser reads encounter event logs.
package parser

import "github.com/ccollicutt/mitilog/pkg/event"

// Record is a decoded event with its origin in the event log.
type Record struct {
	// Event is the decoded event.
	Event event.Event

	// Source is the file path this record came from.
	Source string

	// LineNum is the 1-based line number in the source file.
	LineNum int
}
