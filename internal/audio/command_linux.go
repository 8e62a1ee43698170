//go:build linux

package audio

import "strconv"

// defaultCaptureCommand returns an arecord invocation reading the
// default ALSA/Pulse device, so the router's set-default-source call
// decides what gets captured.
func defaultCaptureCommand(cfg CaptureConfig) CaptureCommand {
	device := cfg.Device
	if device == "" {
		device = "default"
	}
	return CaptureCommand{
		Binary: "arecord",
		Args: []string{
			"-q",
			"-D", device,
			"-f", "S16_LE",
			"-r", strconv.FormatUint(uint64(cfg.SampleRate), 10),
			"-c", strconv.FormatUint(uint64(cfg.Channels), 10),
			"-t", "raw",
			"-",
		},
	}
}
