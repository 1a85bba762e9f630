// Package main is the entry point for the Sentinel report API.
//
// The service turns uploaded PDF documents into table of contents, structure
// summaries and DOCX reports, and answers questions over the carbon
// emission datasets.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/sentinel-report/cmd/report-api/app"
)

func main() {
	app.NewApp().Run()
}
