package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snag/internal/media"
	"snag/internal/ui"
)

var errResolveFailed = errors.New("resolution failed")

// resolveRun is the default command: snag <url>
func resolveRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	svc, cleanup, err := buildService(nil)
	if err != nil {
		return err
	}
	defer cleanup()

	req := media.Request{URL: args[0], Quality: cfg.Quality, Kind: media.KindHint(cfg.Kind)}
	logger.Debug().Str("url", req.URL).Str("quality", req.Quality).Str("kind", cfg.Kind).Msg("resolving")

	var resp media.Response
	spinOut := os.Stderr
	if flagJSON || cfg.Debug {
		spinOut = nil
	}
	err = ui.Spin(cmd.Context(), spinOut, "Resolving "+req.URL, func(ctx context.Context) error {
		resp = svc.Handle(ctx, req)
		return nil
	})
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else if resp.Success {
		fmt.Println(ui.RenderResponse(resp))
	} else {
		fmt.Fprintln(os.Stderr, ui.RenderResponse(resp))
	}

	if !resp.Success {
		cmd.SilenceErrors = true
		return errResolveFailed
	}
	return nil
}
