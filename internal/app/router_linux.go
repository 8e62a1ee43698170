//go:build linux

package app

// defaultRoutingTool uses pactl to move the default PulseAudio/
// PipeWire source
func defaultRoutingTool() routingTool {
	return routingTool{
		binary:    "pactl",
		queryArgs: []string{"get-default-source"},
		setArgs: func(device string) []string {
			return []string{"set-default-source", device}
		},
	}
}

// defaultCaptureSource returns the monitor of the default output,
// which carries whatever the system is playing
func defaultCaptureSource() string {
	return "@DEFAULT_MONITOR@"
}
