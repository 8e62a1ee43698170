package audio

import "strings"

// CaptureCommand describes the external process that produces the raw
// PCM stream on its stdout.
type CaptureCommand struct {
	Binary string
	Args   []string
}

// String returns the full command line for logging
func (c CaptureCommand) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// captureCommand resolves the capture command for this configuration,
// preferring an explicit override from the config file over the
// platform default.
func captureCommand(cfg CaptureConfig) CaptureCommand {
	if len(cfg.Command) > 0 {
		return CaptureCommand{Binary: cfg.Command[0], Args: cfg.Command[1:]}
	}
	return defaultCaptureCommand(cfg)
}
