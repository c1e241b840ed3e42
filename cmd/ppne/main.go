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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/photonoise/ppne/internal/conf"
	"github.com/photonoise/ppne/internal/hdr"
	"github.com/photonoise/ppne/internal/ops"
	"github.com/photonoise/ppne/internal/rest"
)

const version = "0.1.2"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out    = flag.String("out", "out.hdr", "save merged radiance map as Radiance RGBE to `file`")
var tif    = flag.String("tiff", "", "save 16-bit TIFF rendering of the merge to `file`")
var jpg    = flag.String("jpg", "%auto", "save 8-bit preview of the merge as JPEG to `file`. `%auto` replaces suffix of output file with .jpg")
var log    = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var config = flag.String("config", "", "load run configuration from YAML `file`")

var coefRed   = flag.Float64("coefRed",   1, "red channel sensitivity coefficient")
var coefGreen = flag.Float64("coefGreen", 1, "green channel sensitivity coefficient")
var coefBlue  = flag.Float64("coefBlue",  1, "blue channel sensitivity coefficient")

var gamma       = flag.Float64("gamma", 1, "apply output gamma to TIFF and JPEG renderings, 1: keep linear light data")
var quality     = flag.Int("quality", 95, "JPEG preview quality in 1..100")
var jpgMaxWidth = flag.Int("jpgMaxWidth", 0, "downscale JPEG previews wider than this many pixels, 0=off")

var maxThreads = flag.Int("maxThreads", 0, "concurrency limit for decoding and scaling, 0=number of physical cores")
var addr       = flag.String("addr", "", "bind address for the serve command, default :8080")

func main() {
	start:=time.Now()
	flag.Usage=func(){
 	    fmt.Fprintf(logWriter, `PPNE Copyright (c) 2023 The PPNE Authors
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (merge|stats|serve|legal|version) (img0.jpg ... imgn.jpg)

Commands:
  merge   Merge input frames into one HDR radiance map
  stats   Show radiance statistics per input frame
  serve   Start the HTTP API server
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
	    flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" {
			*log=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
		} else {
			*log=""
		}
	}
	if *log!="" {
		if err:=logWriter.AlsoToFile(*log); err!=nil { logFatalf("Unable to open logfile '%s'\n", *log) }
	}

	// Enable CPU profiling if flagged
	if *cpuprofile!="" {
		f, err:=os.Create(*cpuprofile)
		if err!=nil {
			logFatal("Could not create CPU profile: ", err)
		}
		defer f.Close()
		if err:=pprof.StartCPUProfile(f); err!=nil {
			logFatal("Could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	opt, err:=loadOptions()
	if err!=nil {
		fmt.Fprintf(logWriter, "Error in configuration: %s\n", err.Error())
		os.Exit(-1)
	}

	ctx:=hdr.NewContext(logWriter)
	if *maxThreads>0 { ctx.MaxThreads=*maxThreads }

	// run actions
	switch args[0] {
	case "serve":
		rest.Serve(opt)

	case "merge":
		_, err=ops.Merge(args[1:], opt, ctx)

	case "stats":
		err=ops.Stats(args[1:], opt, ctx)

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	now:=time.Now()
	elapsed:=now.Sub(start)
	fmt.Fprintf(logWriter, "\nDone after %v\n", elapsed)
	logWriter.Sync()

	// Store memory profile if flagged
	if *memprofile!="" {
		f, err:=os.Create(*memprofile)
		if err!=nil {
			logFatal("Could not create memory profile: ", err)
		}
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err:=pprof.Lookup("allocs").WriteTo(f, 0); err!=nil {
			logFatal("Could not write allocation profile: ", err)
		}
	}

	if err!=nil {
		fmt.Fprintf(logWriter, "Error (%s): %s\n", hdr.ErrorClass(err), err.Error())
		logWriter.Sync()
		os.Exit(-1)
	}
}

// Assembles run options from the optional YAML config file, with
// explicitly set command line flags taking precedence
func loadOptions() (conf.Options, error) {
	opt:=conf.New()
	if *config!="" {
		var err error
		opt, err=conf.Load(*config)
		if err!=nil { return opt, err }
		fmt.Fprintf(logWriter, "Loaded base configuration from %s\n", *config)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":         opt.Output.FileName=*out
		case "tiff":        opt.Output.TIFF=*tif
		case "jpg":         opt.Output.JPG=*jpg
		case "gamma":       opt.Output.Gamma=float32(*gamma)
		case "quality":     opt.Output.Quality=*quality
		case "jpgMaxWidth": opt.Output.JPGMaxWidth=*jpgMaxWidth
		case "coefRed":     opt.Coefficients.R=float32(*coefRed)
		case "coefGreen":   opt.Coefficients.G=float32(*coefGreen)
		case "coefBlue":    opt.Coefficients.B=float32(*coefBlue)
		case "addr":        opt.Serve.Addr=*addr
		}
	})

	return opt, opt.Finalize()
}
