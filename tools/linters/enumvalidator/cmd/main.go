package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"samilabs.app/pulse/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
