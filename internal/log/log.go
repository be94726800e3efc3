// Package log is a shortcut for accessing the lol.Logger's level printers
// under short names.
package log

import "github.com/h-uru/moula-authd/internal/lol"

var F, E, W, I, D, T lol.LevelPrinter

func init() {
	F, E, W, I, D, T = lol.Main.Log.F, lol.Main.Log.E, lol.Main.Log.W, lol.Main.Log.I, lol.Main.Log.D, lol.Main.Log.T
}
