// MODUL: clipserve/main
// ZWECK: Einstiegspunkt der clipserve CLI
// INPUT: Kommandozeile
// OUTPUT: Exit-Code
// NEBENEFFEKTE: siehe Subcommands
// ABHAENGIGKEITEN: cmd, cobra

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PeterGuy326/react-vision/cmd"
)

func main() {
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
