//go:build linux

package input

import "golang.design/x/hotkey"

// Platform modifier aliases: X11 Mod1 is Alt, Mod4 is Super/Win.
var (
	modAlt   = hotkey.Mod1
	modSuper = hotkey.Mod4
)
