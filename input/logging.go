// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"fmt"
	"log"
	"os"

	"github.com/cpmech/gosl/mpi"
)

// Level orders console verbosity from errors-only up to chatty success
// messages.
type Level int

const (
	LevelErr Level = iota
	LevelWarn
	LevelMsg
	LevelOk
)

// Verbosity reads the LOG_LEVEL environment variable (err, warn, msg,
// ok); unset or unrecognised values default to msg.
func Verbosity() Level {
	switch os.Getenv("LOG_LEVEL") {
	case "err":
		return LevelErr
	case "warn":
		return LevelWarn
	case "ok":
		return LevelOk
	default:
		return LevelMsg
	}
}

// logFile holds the handle to this rank's log file.
var logFile *os.File

// InitLogFile creates dirout/fnamekey_p<rank>.log and connects the
// standard logger to it.
func InitLogFile(dirout, fnamekey string) (err error) {
	var rank int
	if mpi.IsOn() {
		rank = mpi.Rank()
	}
	f, err := os.Create(fmt.Sprintf("%s/%s_p%d.log", dirout, fnamekey, rank))
	if err != nil {
		return err
	}
	logFile = f
	log.SetOutput(logFile)
	return nil
}

// FlushLog closes the log file handle, flushing buffered output to disk.
func FlushLog() {
	if logFile != nil {
		logFile.Close()
	}
}

// LogErr logs err (if non-nil) prefixed with msg and reports whether the
// caller should stop.
func LogErr(err error, msg string) (stop bool) {
	if err != nil {
		log.Printf("ERROR: %s: %v", msg, err)
		return true
	}
	return false
}

// LogErrCond logs a formatted error message when condition is true and
// reports whether the caller should stop.
func LogErrCond(condition bool, msg string, args ...interface{}) (stop bool) {
	if condition {
		log.Printf("ERROR: %s", fmt.Sprintf(msg, args...))
		return true
	}
	return false
}
