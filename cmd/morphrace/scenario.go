package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/san-kum/morphrace/internal/automation"
	"github.com/san-kum/morphrace/internal/storage"
	"github.com/spf13/cobra"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sc.Description != "" {
		fmt.Printf("%s: %s\n", sc.Name, sc.Description)
	}
	results, err := automation.RunScenario(ctx, sc, automation.Options{Store: st, Logger: logger})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMODE\tSTEPS\tCOMPLETED\tRUN ID")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\n", r.Name, r.Config.Mode, r.Result.StepsTaken, r.Result.Completed, id)
	}
	w.Flush()
	return err
}
