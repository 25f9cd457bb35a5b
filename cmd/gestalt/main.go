// Copyright © 2024 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Gestalt is a tool to infer cell lineage trees
// and their mutation parameters
// from CRISPR edited barcodes.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/gestalt/cmd/gestalt/draw"
	"github.com/js-arias/gestalt/cmd/gestalt/fitcmd"
	"github.com/js-arias/gestalt/cmd/gestalt/like"
	"github.com/js-arias/gestalt/cmd/gestalt/profile"
	"github.com/js-arias/gestalt/cmd/gestalt/sim"
)

var app = &command.Command{
	Usage: "gestalt <command> [<argument>...]",
	Short: "a tool for cell lineage inference from CRISPR barcodes",
}

func init() {
	app.Add(draw.Command)
	app.Add(fitcmd.Command)
	app.Add(like.Command)
	app.Add(profile.Command)
	app.Add(sim.Command)
}

func main() {
	app.Main()
}
