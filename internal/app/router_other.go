//go:build !darwin && !linux

package app

// defaultRoutingTool returns an empty tool; the router reports
// ErrDeviceControl on platforms without a known utility and sessions
// run with --no-route there.
func defaultRoutingTool() routingTool {
	return routingTool{}
}

func defaultCaptureSource() string {
	return ""
}
