package main

import (
	"github.com/pterm/pterm"

	"github.com/teranos/schemagen/logger"
)

// reportWarnings logs every non-fatal diagnostic collected while parsing the
// schema. In JSON mode the message is left plain so it stays a clean log
// field; in console mode it gets the same severity coloring the generator's
// other diagnostics use.
func reportWarnings(warnings []string) {
	for _, w := range warnings {
		if logger.JSONOutput {
			logger.Warn(w)
			continue
		}
		logger.Warn(pterm.Yellow(w))
	}
}

// reportFatal colorizes a fatal error's message before it reaches the
// logger, the same way the warning path does, so a terminal run reads
// red-for-fatal/yellow-for-warning without inspecting log levels.
func reportFatal(err error) {
	if logger.JSONOutput {
		logger.Error(err)
		return
	}
	logger.Error(pterm.Red(err.Error()))
}
