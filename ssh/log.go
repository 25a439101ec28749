// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"io"
	"log/slog"
	"os"

	"hermannm.dev/devlog"
)

// NewDevLogger returns a logger suitable for interactive use, following
// the handler wiring used throughout the pack's CLI tools
// (slog.New(devlog.NewHandler(...))). Libraries embedding this package in
// a service should instead pass their own *slog.Logger via
// ClientConfig.Logger.
func NewDevLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(devlog.NewHandler(w, &devlog.Options{Level: level}))
}

// logger returns c.Logger, defaulting to slog.Default() so the transport
// never has to nil-check before logging.
func (c *ClientConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
