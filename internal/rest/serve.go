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


package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/photonoise/ppne/internal/conf"
	"github.com/photonoise/ppne/internal/hdr"
	"github.com/photonoise/ppne/internal/ops"
)

func Serve(opt conf.Options) {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",  getPing)
			v1.POST("/stats", postStats(opt))
			v1.POST("/merge", postMerge(opt))
		}
	}
	r.Run(opt.Serve.Addr)
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m, err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

type postMergeArgs struct {
	FilePatterns []string             `json:"filePatterns"`
	Out          string               `json:"out"`
	TIFF         string               `json:"tiff"`
	JPG          string               `json:"jpg"`
	Coefficients *hdr.RGBCoefficients `json:"coefficients"`
}

func postMerge(opt conf.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		logWriter := c.Writer
		var args postMergeArgs
		if err:=c.ShouldBind(&args); err!=nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
			return
		}

		header := logWriter.Header()
		header.Set("Content-Type", "text/plain")
		logWriter.WriteHeader(http.StatusOK)

		if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
			fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
			return
		}

		if args.Out!=""  { opt.Output.FileName=args.Out }
		if args.TIFF!="" { opt.Output.TIFF=args.TIFF }
		if args.JPG!=""  { opt.Output.JPG=args.JPG }
		if args.Coefficients!=nil { opt.Coefficients=*args.Coefficients }
		if err:=opt.Finalize(); err!=nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			return
		}

		ctx:=hdr.NewContext(logWriter)
		_, err:=ops.Merge(args.FilePatterns, opt, ctx)
		if err!=nil {
			fmt.Fprintf(logWriter, "error (%s): %s\n", hdr.ErrorClass(err), err.Error())
		}
		logWriter.(http.Flusher).Flush()
	}
}

type postStatsArgs struct {
	FilePatterns []string             `json:"filePatterns"`
	Coefficients *hdr.RGBCoefficients `json:"coefficients"`
}

func postStats(opt conf.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		logWriter := c.Writer
		var args postStatsArgs
		if err:=c.ShouldBind(&args); err!=nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
			return
		}

		header := logWriter.Header()
		header.Set("Content-Type", "text/plain")
		logWriter.WriteHeader(http.StatusOK)

		if err:=printArgs(logWriter, "Arguments:\n", "\n", args); err!=nil {
			fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
			return
		}

		if args.Coefficients!=nil { opt.Coefficients=*args.Coefficients }
		if err:=opt.Finalize(); err!=nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			return
		}

		ctx:=hdr.NewContext(logWriter)
		if err:=ops.Stats(args.FilePatterns, opt, ctx); err!=nil {
			fmt.Fprintf(logWriter, "error (%s): %s\n", hdr.ErrorClass(err), err.Error())
		}
		logWriter.(http.Flusher).Flush()
	}
}
