package sflsweep

import _ "embed"

// Version is the release version, without surrounding whitespace guarantees.
//
//go:embed VERSION
var Version string
