// Copyright (C) 2023 The PPNE Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package main

import (
	"bufio"
	"fmt"
	"os"
)

// Singleton log writer. Writes to stdout, and optionally to a file.
// Does not add prefixes, or force newlines.
type logSink struct {
	file   *bufio.Writer
	fileOS *os.File
}

var logWriter=&logSink{}

func (l *logSink) Write(p []byte) (n int, err error) {
	n, err=os.Stdout.Write(p)
	if err!=nil || l.file==nil { return n, err }
	return l.file.Write(p)
}

// Enables logging to file in addition to stdout
func (l *logSink) AlsoToFile(fileName string) (err error) {
	if l.file!=nil {
		err=l.file.Flush()
		if err!=nil { return err }
		err=l.fileOS.Close()
		if err!=nil { return err }
	}
	l.fileOS, err=os.OpenFile(fileName, os.O_CREATE | os.O_TRUNC | os.O_WRONLY, 0666)
	if err!=nil { return err }
	l.file=bufio.NewWriter(l.fileOS)
	return nil
}

func (l *logSink) Sync() {
	if l.file==nil { return }
	l.file.Flush()
	l.fileOS.Sync()
}

func logFatal(args ...interface{}) {
	fmt.Fprintln(logWriter, args...)
	logWriter.Sync()
	os.Exit(1)
}

func logFatalf(format string, args ...interface{}) {
	fmt.Fprintf(logWriter, format, args...)
	logWriter.Sync()
	os.Exit(1)
}
