// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package rlog provides the render core's structured logging
// sink and the validation-layer message denylist.
package rlog

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// L is the package-wide logger. Replace it (e.g. in tests, or
// to redirect to a file) by assigning a new zerolog.Logger.
var L = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
	With().
	Timestamp().
	Logger()

var (
	denyMu   sync.RWMutex
	denylist = map[string]struct{}{
		// Known-harmless validation-layer chatter.
		"Output-not-consumed":   {},
		"CoreValidation-Shader": {},
	}
)

// Denylist adds substrings to the validation-message denylist.
// Any validation-layer message containing one of these
// substrings is dropped before it reaches the logger.
func Denylist(substrings ...string) {
	denyMu.Lock()
	defer denyMu.Unlock()
	for _, s := range substrings {
		denylist[s] = struct{}{}
	}
}

// Validation surfaces a validation-layer message to the log at
// warn level, unless it matches an entry in the denylist, in
// which case it is dropped.
func Validation(msg string) {
	denyMu.RLock()
	defer denyMu.RUnlock()
	for s := range denylist {
		if strings.Contains(msg, s) {
			return
		}
	}
	L.Warn().Str("source", "validation-layer").Msg(msg)
}
