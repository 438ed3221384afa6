package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doubletgeekedup/int-dashboard-sub000/internal/di"
	"github.com/doubletgeekedup/int-dashboard-sub000/internal/domain"
)

var (
	similarThreshold float64
	similarType      string
	similarClass     string
	similarFunction  string
	similarStructure bool
	similarMaxHops   int
	impactGraph      bool
	askSource        string
)

var similarCmd = &cobra.Command{
	Use:   "similar [node-id]",
	Short: "Rank nodes similar to a stored node or to the given properties",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := domain.NodePartial{Type: similarType, Class: similarClass, FunctionName: similarFunction}
		if len(args) == 1 {
			target.ID = args[0]
		}
		return withContainer(func(ctx context.Context, c *di.Container) error {
			if similarStructure {
				if target.ID == "" {
					return fmt.Errorf("--structure requires a node id")
				}
				out := c.Structural.FindSimilarByStructure(ctx, target.ID, similarMaxHops)
				return emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "status: %s", out.Status)
					if out.Reason != "" {
						fmt.Fprintf(w, " (%s)", out.Reason)
					}
					fmt.Fprintln(w)
					printResults(w, out.Data)
				})
			}
			results, err := c.Engine.Similarity(ctx, target, similarThreshold)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), results, func(w io.Writer) { printResults(w, results) })
		})
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact <node-id>",
	Short: "Assess the impact of changing a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			if impactGraph {
				out, err := c.Structural.AssessImpactByGraph(ctx, args[0])
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "status: %s\nrisk score: %d\n", out.Status, out.Data.RiskScore)
					printAssessment(w, &out.Data.ImpactAssessment)
				})
			}
			a, err := c.Engine.AssessImpact(ctx, args[0])
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), a, func(w io.Writer) { printAssessment(w, a) })
		})
	},
}

var depsCmd = &cobra.Command{
	Use:   "deps <node-id>",
	Short: "List the dependencies of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			out, err := c.Engine.Dependencies(ctx, args[0])
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "status: %s\n", out.Status)
				for _, d := range out.Data {
					fmt.Fprintf(w, "  %-20s %-10s %-9s %s\n", d.NodeID, d.Relation, d.Direction, d.SourceCode)
				}
			})
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a free-text question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			resp, err := c.Interpreter.Interpret(ctx, strings.Join(args, " "), askSource)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), resp, func(w io.Writer) { fmt.Fprintln(w, resp.Response) })
		})
	},
}

func init() {
	similarCmd.Flags().Float64Var(&similarThreshold, "threshold", 0, "Minimum similarity (default from config)")
	similarCmd.Flags().StringVar(&similarType, "type", "", "Target type")
	similarCmd.Flags().StringVar(&similarClass, "class", "", "Target class")
	similarCmd.Flags().StringVar(&similarFunction, "function", "", "Target function name")
	similarCmd.Flags().BoolVar(&similarStructure, "structure", false, "Rank by shared graph neighbors")
	similarCmd.Flags().IntVar(&similarMaxHops, "max-hops", 2, "Traversal depth for --structure")
	impactCmd.Flags().BoolVar(&impactGraph, "graph", false, "Score impact from graph reach")
	askCmd.Flags().StringVar(&askSource, "source", "", "Scope counts to a source code")

	rootCmd.AddCommand(similarCmd, impactCmd, depsCmd, askCmd)
}

func printResults(w io.Writer, results []domain.SimilarityResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %-20s %.2f  %-8s %s\n", r.NodeID, r.Similarity, r.ImpactLevel, r.SourceCode)
	}
}

func printAssessment(w io.Writer, a *domain.ImpactAssessment) {
	s := a.ImpactSummary
	fmt.Fprintf(w, "target: %s\naffected: %d\nimpact score: %d\n", a.TargetNodeID, s.TotalAffectedNodes, s.EstimatedImpactScore)
	for _, level := range domain.ImpactLevels {
		if n := s.SeverityBreakdown[level]; n > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", level, n)
		}
	}
	for _, rec := range a.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
}
