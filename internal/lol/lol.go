// Package lol (log of location) is a small leveled logger that timestamps
// every line and tags it with the call site. It is the mechanism package;
// internal/log and internal/chk are the call-site shortcuts built on top of
// it.
package lol

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

const (
	Off = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

var LevelNames = []string{"off", "fatal", "error", "warn", "info", "debug", "trace"}

type (
	// Ln prints space-joined values.
	Ln func(a ...any)
	// F prints like fmt.Sprintf.
	F func(format string, a ...any)
	// S spew-dumps values, for diagnosing a malformed vault template or wire frame.
	S func(a ...any)
	// Chk logs only when err is non-nil (and the level is enabled) and
	// reports whether err was non-nil.
	Chk func(err error) bool
	// Err builds an error with fmt.Errorf and logs it at the call site.
	Err func(format string, a ...any) error

	// LevelPrinter is the set of printers for one level.
	LevelPrinter struct {
		Ln
		F
		S
		Chk
		Err
	}

	LevelSpec struct {
		ID        int
		Name      string
		Colorizer func(a ...any) string
	}
)

var LevelSpecs = []LevelSpec{
	{Off, "", noSprint},
	{Fatal, "FTL", color.New(color.BgRed, color.FgHiWhite).Sprint},
	{Error, "ERR", color.New(color.FgHiRed).Sprint},
	{Warn, "WRN", color.New(color.FgHiYellow).Sprint},
	{Info, "INF", color.New(color.FgHiGreen).Sprint},
	{Debug, "DBG", color.New(color.FgHiBlue).Sprint},
	{Trace, "TRC", color.New(color.FgHiMagenta).Sprint},
}

func noSprint(a ...any) string { return "" }

// Log is the set of level printers.
type Log struct{ F, E, W, I, D, T LevelPrinter }

// Check is the Chk-only view of each level.
type Check struct{ F, E, W, I, D, T Chk }

// Logger bundles Log and Check behind the level printers they share.
type Logger struct {
	*Log
	*Check
}

var level atomic.Int32

// Main is the process-wide logger.
var Main = &Logger{}

func init() {
	Main.Log, Main.Check = New(os.Stderr)
	SetLevel(Info)
}

// SetLevel sets the active log level.
func SetLevel(l int) {
	level.Store(int32(l))
}

// SetLevelByName sets the level from one of LevelNames, ignoring unknown names.
func SetLevelByName(name string) {
	for i, n := range LevelNames {
		if n == name {
			SetLevel(i)
			return
		}
	}
}

var msgCol = color.New(color.FgBlue).Sprint

func timestamp() string {
	return time.Now().Format("2006-01-02T15:04:05.000Z07:00")
}

func location(skip int) string {
	_, file, line, _ := runtime.Caller(skip)
	return fmt.Sprintf("%s:%d", file, line)
}

// GetPrinter builds a LevelPrinter writing to w at level l.
func GetPrinter(l int32, w io.Writer) LevelPrinter {
	line := func(body string) {
		fmt.Fprintf(w, "%s %s %s %s\n",
			msgCol(timestamp()), LevelSpecs[l].Colorizer(LevelSpecs[l].Name), body, msgCol(location(3)))
	}
	return LevelPrinter{
		Ln: func(a ...any) {
			if level.Load() < l {
				return
			}
			line(fmt.Sprint(a...))
		},
		F: func(format string, a ...any) {
			if level.Load() < l {
				return
			}
			line(fmt.Sprintf(format, a...))
		},
		S: func(a ...any) {
			if level.Load() < l {
				return
			}
			line(spew.Sdump(a...))
		},
		Chk: func(err error) bool {
			if err == nil {
				return false
			}
			if level.Load() >= l {
				line(err.Error())
			}
			return true
		},
		Err: func(format string, a ...any) error {
			err := fmt.Errorf(format, a...)
			if level.Load() >= l {
				line(err.Error())
			}
			return err
		},
	}
}

// New builds a Log/Check pair writing to w.
func New(w io.Writer) (l *Log, c *Check) {
	l = &Log{
		T: GetPrinter(Trace, w),
		D: GetPrinter(Debug, w),
		I: GetPrinter(Info, w),
		W: GetPrinter(Warn, w),
		E: GetPrinter(Error, w),
		F: GetPrinter(Fatal, w),
	}
	c = &Check{F: l.F.Chk, E: l.E.Chk, W: l.W.Chk, I: l.I.Chk, D: l.D.Chk, T: l.T.Chk}
	return
}
