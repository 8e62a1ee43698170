//go:build darwin

package app

// defaultRoutingTool uses SwitchAudioSource from the
// switchaudio-osx package (brew install switchaudio-osx)
func defaultRoutingTool() routingTool {
	return routingTool{
		binary:    "SwitchAudioSource",
		queryArgs: []string{"-c", "-t", "input"},
		setArgs: func(device string) []string {
			return []string{"-s", device, "-t", "input"}
		},
	}
}

// defaultCaptureSource returns the loopback device system audio is
// mirrored to on macOS
func defaultCaptureSource() string {
	return "BlackHole 2ch"
}
