// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package kvlog provides leveled logging for the server: package-level
// Debug/Info/Warn/Error/Fatal functions backed by a stdlib log.Logger per
// level, filtered by swapping each level's writer to io.Discard once it
// falls below the configured level. Adapted from cc-backend's pkg/log,
// trimmed to the levels this server actually uses and without the
// systemd syslog-priority prefixes (this server's output does not rely on
// them).
package kvlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	debugWriter io.Writer = os.Stderr
	infoWriter  io.Writer = os.Stderr
	warnWriter  io.Writer = os.Stderr
	errWriter   io.Writer = os.Stderr
)

var (
	debugLog = log.New(debugWriter, "[DEBUG] ", 0)
	infoLog  = log.New(infoWriter, "[INFO]  ", 0)
	warnLog  = log.New(warnWriter, "[WARN]  ", log.Lshortfile)
	errLog   = log.New(errWriter, "[ERROR] ", log.Llongfile)

	debugTimeLog = log.New(debugWriter, "[DEBUG] ", log.LstdFlags)
	infoTimeLog  = log.New(infoWriter, "[INFO]  ", log.LstdFlags)
	warnTimeLog  = log.New(warnWriter, "[WARN]  ", log.LstdFlags|log.Lshortfile)
	errTimeLog   = log.New(errWriter, "[ERROR] ", log.LstdFlags|log.Llongfile)
)

// SetLevel configures which levels actually write output. Lower levels
// fall through to higher ones: "warn" silences info and debug but keeps
// warn/error.
func SetLevel(lvl string) {
	switch lvl {
	case "err", "error":
		warnWriter = io.Discard
		fallthrough
	case "warn":
		infoWriter = io.Discard
		fallthrough
	case "info":
		debugWriter = io.Discard
	case "debug":
	default:
		fmt.Fprintf(os.Stderr, "kvlog: invalid log level %q, defaulting to info\n", lvl)
		SetLevel("info")
	}
}

// SetLogDateTime toggles whether log lines carry a timestamp prefix.
func SetLogDateTime(on bool) { logDateTime = on }

func Debug(v ...interface{}) {
	if debugWriter == io.Discard {
		return
	}
	if logDateTime {
		debugTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		debugLog.Output(2, fmt.Sprint(v...))
	}
}

func Info(v ...interface{}) {
	if infoWriter == io.Discard {
		return
	}
	if logDateTime {
		infoTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		infoLog.Output(2, fmt.Sprint(v...))
	}
}

func Warn(v ...interface{}) {
	if warnWriter == io.Discard {
		return
	}
	if logDateTime {
		warnTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		warnLog.Output(2, fmt.Sprint(v...))
	}
}

func Error(v ...interface{}) {
	if errWriter == io.Discard {
		return
	}
	if logDateTime {
		errTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		errLog.Output(2, fmt.Sprint(v...))
	}
}

// Fatal logs at error level then terminates the process, mirroring the
// teacher's log.Fatal usage reserved for unrecoverable startup failures.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Debugf(format string, v ...interface{}) { Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { Error(fmt.Sprintf(format, v...)) }
func Fatalf(format string, v ...interface{}) { Fatal(fmt.Sprintf(format, v...)) }
