package main

import (
	"github.com/spf13/cobra"

	"github.com/oho/kmeansd/internal/dataset"
	"github.com/oho/kmeansd/internal/kmeans"
)

const (
	defaultLegacyIterations = "200"
	legacyEpsilon           = 0.001
)

func newLegacyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legacy K [ITER]",
		Short: "Cluster rows read from stdin, seeding with the first K rows",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runLegacy,
	}
}

func runLegacy(cmd *cobra.Command, args []string) error {
	iterArg := defaultLegacyIterations
	if len(args) == 2 {
		iterArg = args[1]
	}

	rows, err := dataset.ReadRows(cmd.InOrStdin())
	if err != nil {
		return err
	}
	k, err := parseClusters(args[0], 1, len(rows), true)
	if err != nil {
		return err
	}
	iter, err := parseIterations(iterArg, errLegacyIterations)
	if err != nil {
		return err
	}

	d := len(rows[0])
	data, err := kmeans.NewMatrix(rows, d)
	if err != nil {
		return err
	}
	centroids, err := kmeans.NewMatrix(rows[:k], d)
	if err != nil {
		return err
	}
	if _, err := kmeans.Fit(centroids, data, k, iter, legacyEpsilon); err != nil {
		return err
	}
	return dataset.WriteCentroids(cmd.OutOrStdout(), kmeans.Rows(centroids))
}
