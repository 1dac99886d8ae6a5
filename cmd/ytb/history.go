package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yourusername/ytb/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		filters := make(map[string]interface{})
		if status != "" {
			if !domain.ValidateStatus(domain.RunStatus(status)) {
				return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
			}
			filters["status"] = status
		}

		return withHistory(func(repo domain.RunRepository) error {
			runs, err := repo.FindAll(filters)
			if err != nil {
				return err
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}
			printRuns(runs)
			return nil
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(repo domain.RunRepository) error {
			stats, err := repo.GetStats()
			if err != nil {
				return err
			}
			printStats(stats)
			return nil
		})
	},
}

var historyGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show run details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(repo domain.RunRepository) error {
			run, err := repo.FindByID(args[0])
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a run from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newServices(config, log)
		if err != nil {
			return err
		}
		defer rt.Close()
		if err := rt.requireHistory(); err != nil {
			return err
		}

		if err := rt.runMgr.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("Run deleted")
		return nil
	},
}

func init() {
	historyListCmd.Flags().StringP("status", "s", "", "Filter by status")
	historyListCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyGetCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func withHistory(fn func(repo domain.RunRepository) error) error {
	rt, err := newServices(config, log)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireHistory(); err != nil {
		return err
	}
	return fn(rt.repo)
}

func printRuns(runs []*domain.Run) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tACTION\tFORMAT\tSTATUS\tTITLE\tSIZE\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r.ID, 8),
			r.Action,
			describeKind(r),
			r.Status,
			truncate(r.Title, 40),
			formatSize(r.FileSize),
			humanize.Time(r.CreatedAt))
	}
	w.Flush()
}

func printStats(stats *domain.RunStats) {
	fmt.Println("Run Statistics:")
	fmt.Printf("  Total:      %d\n", stats.Total)
	fmt.Printf("  Queued:     %d\n", stats.Queued)
	fmt.Printf("  Processing: %d\n", stats.Processing)
	fmt.Printf("  Completed:  %d\n", stats.Completed)
	fmt.Printf("  Failed:     %d\n", stats.Failed)
	fmt.Printf("  Cancelled:  %d\n", stats.Cancelled)
}

func printRun(r *domain.Run) {
	fmt.Printf("Run Details:\n")
	fmt.Printf("  ID:       %s\n", r.ID)
	fmt.Printf("  URL:      %s\n", r.URL)
	if r.Title != "" {
		fmt.Printf("  Title:    %s\n", r.Title)
	}
	fmt.Printf("  Action:   %s\n", r.Action)
	fmt.Printf("  Format:   %s\n", describeKind(r))
	fmt.Printf("  Status:   %s\n", r.Status)
	fmt.Printf("  Created:  %s (%s)\n", r.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(r.CreatedAt))
	if r.StartedAt != nil && r.CompletedAt != nil {
		fmt.Printf("  Took:     %s\n", r.CompletedAt.Sub(*r.StartedAt).Round(time.Millisecond))
	}
	if r.FilePath != "" {
		fmt.Printf("  File:     %s (%s)\n", r.FilePath, formatSize(r.FileSize))
	}
	if r.ErrorMessage != "" {
		fmt.Printf("  Error:    %s\n", r.ErrorMessage)
	}
}

func describeKind(r *domain.Run) string {
	if r.Convert {
		return string(r.Kind) + "+convert"
	}
	return string(r.Kind)
}

func formatSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(size))
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
