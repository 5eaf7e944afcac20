package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vnykmshr/allocmetrics/pkg/allocator"
	"github.com/vnykmshr/allocmetrics/pkg/metrics"
)

var pathsFlags struct {
	role          string
	frameworkName string
	frameworkID   string
	prometheus    bool
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the metric paths for a role and framework",
	Long: `Print every metric path the allocator registers for one role and one
framework, using the resources from the configuration. Useful when building
dashboards.

Examples:
  allocmetrics paths --role eng/frontend
  allocmetrics paths --role eng --framework-name web --prometheus`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		id := pathsFlags.frameworkID
		if id == "" {
			id = uuid.NewString()
		}
		info := allocator.FrameworkInfo{ID: id, Name: pathsFlags.frameworkName}

		out := cmd.OutOrStdout()
		for _, path := range metricPaths(cfg.Allocator.Resources, pathsFlags.role, info) {
			if pathsFlags.prometheus {
				fmt.Fprintf(out, "%s{path=%q}\n", metrics.PrometheusName(cfg.Metrics.Namespace, path), path)
				continue
			}
			fmt.Fprintln(out, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)

	pathsCmd.Flags().StringVar(&pathsFlags.role, "role", "eng", "role name")
	pathsCmd.Flags().StringVar(&pathsFlags.frameworkName, "framework-name", "framework", "framework name")
	pathsCmd.Flags().StringVar(&pathsFlags.frameworkID, "framework-id", "", "framework ID (random when empty)")
	pathsCmd.Flags().BoolVar(&pathsFlags.prometheus, "prometheus", false, "print exported Prometheus series instead of paths")
}

// metricPaths lists the allocator-wide paths, the paths owned by role, and
// the paths owned by the framework for role.
func metricPaths(resources []string, role string, info allocator.FrameworkInfo) []string {
	paths := []string{
		allocator.EventQueueDispatchesPath,
		allocator.LegacyEventQueueDispatchesPath,
		allocator.AllocationRunsPath,
		allocator.AllocationRunPath,
		allocator.AllocationRunLatencyPath,
	}
	for _, r := range resources {
		paths = append(paths, allocator.ResourceTotalPath(r), allocator.ResourceOfferedOrAllocatedPath(r))
	}

	for _, r := range resources {
		paths = append(paths, allocator.QuotaGuaranteePath(role, r), allocator.QuotaOfferedOrAllocatedPath(role, r))
	}
	paths = append(paths, allocator.OfferFiltersActivePath(role))

	prefix := allocator.FrameworkPrefix(info)
	for _, reason := range []allocator.FilterReason{
		allocator.FilterGeneric,
		allocator.FilterDecline,
		allocator.FilterGPU,
		allocator.FilterRegionAware,
		allocator.FilterReservationRefinement,
		allocator.FilterRevocable,
	} {
		paths = append(paths, allocator.ResourcesFilteredPath(prefix, reason))
	}

	minPath, maxPath := allocator.LatestPositionPaths(prefix, role)
	paths = append(paths, minPath, maxPath, allocator.SuppressedPath(prefix, role))

	return paths
}
