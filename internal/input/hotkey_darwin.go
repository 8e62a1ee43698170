//go:build darwin

package input

import "golang.design/x/hotkey"

// Platform modifier aliases: alt is the Option key, super is Command.
var (
	modAlt   = hotkey.ModOption
	modSuper = hotkey.ModCmd
)
