// Package chk is a shortcut for the logger's error-check printers: chk.E(err)
// logs err at the Error level and reports whether err was non-nil, so call
// sites read "if chk.E(err) { return }".
package chk

import "github.com/h-uru/moula-authd/internal/lol"

var F, E, W, I, D, T lol.Chk

func init() {
	F, E, W, I, D, T = lol.Main.Check.F, lol.Main.Check.E, lol.Main.Check.W, lol.Main.Check.I, lol.Main.Check.D, lol.Main.Check.T
}
