package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/oho/kmeansd/internal/dataset"
	"github.com/oho/kmeansd/internal/kmeans"
	"github.com/oho/kmeansd/internal/seeding"
)

const defaultFitIterations = "300"

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit K [ITER] EPS FILE1 FILE2",
		Short: "Join two files on their first column and cluster them with k-means++ seeding",
		Args:  cobra.RangeArgs(4, 5),
		RunE:  runFit,
	}
	cmd.Flags().Uint64("seed", seeding.DefaultSeed, "Seed for k-means++ sampling")
	cmd.Flags().Bool("commit-on-convergence", false, "Return the centroids computed in the converging iteration")
	return cmd
}

func runFit(cmd *cobra.Command, args []string) error {
	seed, _ := cmd.Flags().GetUint64("seed")
	commit, _ := cmd.Flags().GetBool("commit-on-convergence")

	kArg, iterArg := args[0], defaultFitIterations
	rest := args[1:]
	if len(args) == 5 {
		iterArg, rest = args[1], args[2:]
	}
	epsArg, file1, file2 := rest[0], rest[1], rest[2]

	a, err := dataset.ReadFile(file1)
	if err != nil {
		return err
	}
	b, err := dataset.ReadFile(file2)
	if err != nil {
		return err
	}
	joined := dataset.InnerJoin(a, b)

	k, err := parseClusters(kArg, 2, joined.Len(), false)
	if err != nil {
		return err
	}
	iter, err := parseIterations(iterArg, errIterations)
	if err != nil {
		return err
	}
	eps, err := parseEpsilon(epsArg)
	if err != nil {
		return err
	}

	data, err := kmeans.NewMatrix(joined.Rows, joined.Dim())
	if err != nil {
		return err
	}
	seeds, err := seeding.KMeansPP(data, k, seed)
	if err != nil {
		return err
	}

	var opts []kmeans.Option
	if commit {
		opts = append(opts, kmeans.WithCommitOnConvergence())
	}
	res, err := kmeans.Fit(seeds.Centroids, data, k, iter, eps, opts...)
	if err != nil {
		return err
	}
	slog.Debug("fit finished", "state", res.State, "iterations", res.Iterations, "n", joined.Len(), "d", joined.Dim())

	out := cmd.OutOrStdout()
	if err := dataset.WriteIndices(out, seeds.Indices); err != nil {
		return fmt.Errorf("write indices: %w", err)
	}
	if err := dataset.WriteCentroids(out, kmeans.Rows(seeds.Centroids)); err != nil {
		return fmt.Errorf("write centroids: %w", err)
	}
	return nil
}
