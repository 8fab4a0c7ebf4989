// Command rxnpath finds low-cost reaction pathways from precursors to a
// target material.
//
//	rxnpath paths --entries entries.yaml --precursors BaO,TiO2 --target BaTiO3 --k 5
//	rxnpath combined --entries entries.yaml --precursors BaO,TiO2 --target BaTiO3
//	rxnpath starters --entries entries.yaml --precursors BaO --target BaTiO3
//	rxnpath snapshot save --entries entries.yaml --precursors BaO,TiO2 --target BaTiO3 --snapshot-dir ./graphs
//	rxnpath paths --snapshot-dir ./graphs --from-snapshot <fingerprint>
//
// Results are written to stdout as JSON; logs go to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
