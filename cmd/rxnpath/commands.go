package main

import (
	"github.com/spf13/cobra"

	"github.com/katalvlaran/rxnpath/pathway"
	"github.com/katalvlaran/rxnpath/store"
)

// pathsOutput is the JSON shape of the paths command.
type pathsOutput struct {
	Target    string             `json:"target"`
	Requested int                `json:"requested"`
	Shortfall int                `json:"shortfall"`
	Pathways  []*pathway.Pathway `json:"pathways"`
}

func (a *app) pathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Find the k cheapest pathways to the target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.network(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), a.cfg.SearchTimeout)
			defer cancel()

			res, err := n.FindKShortestPaths(ctx, a.cfg.K)
			if err != nil {
				return err
			}
			target, err := n.Target()
			if err != nil {
				return err
			}
			out := pathsOutput{
				Target:    target.Key(),
				Requested: res.Requested,
				Shortfall: res.Shortfall,
				Pathways:  res.Pathways,
			}
			if out.Pathways == nil {
				out.Pathways = []*pathway.Pathway{}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (a *app) combinedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combined",
		Short: "Mix pathways into balanced combined pathways",
		Long: `combined finds k pathways to every target, then mixes up to max_num_combos
of them into combined pathways whose net reaction turns exactly the precursors
into the targets.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.network(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), a.cfg.SearchTimeout)
			defer cancel()

			out, err := n.FindCombinedPathways(ctx, a.cfg.K, nil, a.cfg.MaxCombos)
			if err != nil {
				return err
			}
			if out == nil {
				out = []*pathway.CombinedPathway{}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVar(&a.maxCombos, "max-combos", 0, "Largest number of pathways mixed together (overrides config)")
	return cmd
}

func (a *app) startersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "starters",
		Short: "Rank every starter set by its cheapest pathways to the target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.network(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), a.cfg.SearchTimeout)
			defer cancel()

			out, err := n.FindBestStarters(ctx)
			if err != nil {
				return err
			}
			if out == nil {
				out = []*pathway.Pathway{}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (a *app) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Store and inspect built networks",
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Build the network and store it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := a.network(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := st.Save(cmd.Context(), n)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}

	var chemsys string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored networks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			recs, err := st.List(cmd.Context(), chemsys)
			if err != nil {
				return err
			}
			if recs == nil {
				recs = []store.Record{}
			}
			return writeJSON(cmd.OutOrStdout(), recs)
		},
	}
	list.Flags().StringVar(&chemsys, "chemsys", "", "Only list networks of this chemical system, e.g. Ba-O-Ti")

	show := &cobra.Command{
		Use:   "show <fingerprint>",
		Short: "Print a stored network as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			snap, _, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}

	del := &cobra.Command{
		Use:   "delete <fingerprint>",
		Short: "Remove a stored network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(save, list, show, del)
	return cmd
}
