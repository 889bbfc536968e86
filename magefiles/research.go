//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Research builds the CLI and researches one query.
func Research(query string) error {
	mg.Deps(Build, Init)
	return sh.RunV("./"+binDir+"/"+binName, "run", query)
}

// Batch builds the CLI and researches every query in a YAML query file.
func Batch(file string) error {
	mg.Deps(Build, Init)
	return sh.RunV("./"+binDir+"/"+binName, "batch", "--file", file)
}

// History prints the audit trail.
func History() error {
	mg.Deps(Build)
	return sh.RunV("./"+binDir+"/"+binName, "audit")
}
