//go:build darwin

package audio

import "strconv"

// defaultCaptureCommand returns a sox invocation reading the system
// default input device. Capturing the default device is what makes the
// input routing take effect: after the router points the default input
// at the loopback device, sox follows it.
func defaultCaptureCommand(cfg CaptureConfig) CaptureCommand {
	return CaptureCommand{
		Binary: "sox",
		Args: []string{
			"-q",
			"-d",
			"-t", "raw",
			"-r", strconv.FormatUint(uint64(cfg.SampleRate), 10),
			"-c", strconv.FormatUint(uint64(cfg.Channels), 10),
			"-b", strconv.FormatUint(uint64(cfg.BitDepth), 10),
			"-e", "signed-integer",
			"-L",
			"-",
		},
	}
}
