// Package main is the entry point for the rlmetrics CLI tool, which reads
// decoded Rocket League replay traces and extracts physics time-series,
// goal/kickoff/possession events, and classifier training features.
package main

import "github.com/ch-lum/rl-analysis/cmd"

func main() {
	cmd.Execute()
}
