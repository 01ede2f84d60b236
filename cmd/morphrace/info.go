package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/san-kum/morphrace/internal/config"
	"github.com/san-kum/morphrace/internal/engine"
	"github.com/san-kum/morphrace/internal/morphology"
	"github.com/spf13/cobra"
)

func listPresets(cmd *cobra.Command, args []string) error {
	modes := engine.Modes()
	if len(args) == 1 {
		modes = args
	}
	for _, mode := range modes {
		presets := config.ListPresets(mode)
		if len(presets) == 0 {
			fmt.Printf("no presets for mode: %s\n", mode)
			continue
		}
		fmt.Printf("presets for %s:\n", mode)
		for _, p := range presets {
			fmt.Printf("  %s\n", p)
		}
	}
	return nil
}

func listMorphs(cmd *cobra.Command, args []string) error {
	return writeMorphs(os.Stdout)
}

func writeMorphs(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tMAX SPEED\tACCEL\tDRAG\tTURN RATE\tLEGS\tMASS\tGAIT HZ\tSTRIDE")
	for _, k := range morphology.Kinds() {
		p := morphology.Lookup(k)
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.2f\t%.1f\t%d\t%.0f\t%.1f\t%.2f\n",
			k, p.MaxSpeed, p.Acceleration, p.Drag, p.TurnRate, p.Legs, p.Mass, p.GaitFrequency, p.StrideLength())
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	if err := config.Save(args[0], config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
