package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snag/internal/platform"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <url>...",
	Short: "Show which platform each URL belongs to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  classifyRun,
}

type classification struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
	Label    string `json:"label"`
}

func classifyRun(cmd *cobra.Command, args []string) error {
	out := make([]classification, 0, len(args))
	for _, u := range args {
		out = append(out, classification{
			URL:      u,
			Platform: string(platform.Classify(u)),
			Label:    platform.Label(u),
		})
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	for _, c := range out {
		fmt.Printf("%-10s %-12s %s\n", c.Platform, c.Label, c.URL)
	}
	return nil
}
