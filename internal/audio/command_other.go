//go:build !darwin && !linux

package audio

import "strconv"

// defaultCaptureCommand falls back to sox, which is available on every
// platform we run on. Users on exotic setups can override the command
// in the config file.
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
