// Package verify cross-checks the artifacts of a compiled fabric.
//
// Two stages complement each other:
//
//  1. Static lint (lint.go)
//     - STRUCT checks: the ConfigMem partitions the logical bits, every
//     feature bit is backed by a latch, and no two features that are not
//     aliases share a physical bit.
//     - ROUTE checks: muxes that can only select constants, and matrix
//     inputs that no mux listens to.
//
//  2. Programming simulation (configport): an image is strobed into the
//     frame latches and read back.
package verify

import "fmt"

// IssueType categorizes lint issues.
type IssueType string

const (
	IssueStruct IssueType = "STRUCT" // inconsistent bit mapping
	IssueRoute  IssueType = "ROUTE"  // suspicious switch matrix
)

// Issue is a single lint finding.
type Issue struct {
	Type    IssueType
	Tile    string
	Subject string // feature, pin or frame the issue is about
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", i.Type, i.Tile, i.Subject, i.Message)
}
