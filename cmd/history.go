package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"softlink/internal/model"
	"softlink/internal/repository"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
	historyStats  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [config]",
	Short: "View recent synchronization passes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := daemonBaseURL(cmd, args)
		if err != nil {
			return err
		}

		if historyStats {
			return showStats(cmd.OutOrStdout(), base)
		}

		url := fmt.Sprintf("%s/history?n=%d", base, historyN)
		if historyFailed {
			url = base + "/history?failed=true"
		}
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("daemon returned %s", resp.Status)
		}

		var passes []model.Pass
		if err := json.NewDecoder(resp.Body).Decode(&passes); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(passes) == 0 {
			fmt.Fprintln(out, "no history yet")
			return nil
		}

		renderHistory(out, passes)

		return nil
	},
}

func showStats(w io.Writer, base string) error {
	resp, err := http.Get(base + "/history/stats")
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	var stats repository.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return err
	}

	fmt.Fprintf(w, "Passes:  %d\n", stats.Total)
	fmt.Fprintf(w, "Success: %d\n", stats.Success)
	fmt.Fprintf(w, "Partial: %d\n", stats.Partial)
	fmt.Fprintf(w, "Aborted: %d\n", stats.Aborted)
	return nil
}

func renderHistory(w io.Writer, passes []model.Pass) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "Started", "Status", "Linked", "Unlinked", "Trigger", "Error"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})

	for _, p := range passes {
		mark := "✓"
		if p.Status != model.PassSuccess {
			mark = "✗"
		}

		table.Append([]string{
			mark,
			p.StartedAt.Format("2006-01-02 15:04:05"),
			string(p.Status),
			fmt.Sprintf("%d", p.Linked),
			fmt.Sprintf("%d", p.Unlinked),
			p.Trigger,
			p.ErrMsg,
		})
	}

	table.Render()
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show aborted and partial passes")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show pass counts instead of entries")
	rootCmd.AddCommand(historyCmd)
}
