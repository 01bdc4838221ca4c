package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/strm123/strm123/internal/mirror"
	"github.com/strm123/strm123/internal/sharelink"
)

func newMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [link-or-message]",
		Short: "Mirror a share into .strm pointer files and subtitles",
		Long: `Mirror one 123pan share into the output root.

The share is given either as free-form text containing a share link and its
4-character code (for example "https://www.123pan.com/s/abcd-efg 提取码:x1y2"),
or explicitly with --domain, --key and --pwd.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMirror,
	}

	cmd.Flags().String("domain", "", "share domain (e.g. www.123pan.com)")
	cmd.Flags().String("key", "", "share key")
	cmd.Flags().String("pwd", "", "share password")
	cmd.Flags().String("output", "", "output root (overrides mirror.output_root)")
	cmd.Flags().String("base-url", "", "playback base URL (overrides mirror.base_url)")
	cmd.Flags().Int("max-depth", 0, "folder depth limit, -1 = unlimited (overrides mirror.max_depth)")

	return cmd
}

// mirrorResult is the --json output of a run.
type mirrorResult struct {
	Share          string       `json:"share"`
	Tally          mirror.Tally `json:"tally"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	Error          string       `json:"error,omitempty"`
}

func runMirror(cmd *cobra.Command, args []string) error {
	share, err := shareFromArgs(cmd, args)
	if err != nil {
		return err
	}

	logger := buildLogger(resolvedCfg, os.Stderr)

	client, err := newPanClient(resolvedCfg, logger)
	if err != nil {
		return err
	}

	engine := newEngine(resolvedCfg, client, logger)
	ctx, stop := shutdownContext(cmd.Context(), logger)
	defer stop()

	statusf(flagQuiet || flagJSON, "%s\n", sharelink.StartedReply)

	start := time.Now()
	tally, runErr := engine.Mirror(ctx, share)
	elapsed := time.Since(start)

	if flagJSON {
		res := mirrorResult{
			Share:          share.Domain + "/s/" + share.Key,
			Tally:          tally,
			ElapsedSeconds: elapsed.Seconds(),
		}

		if runErr != nil {
			res.Error = runErr.Error()
		}

		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}

		return runErr
	}

	if runErr != nil && errors.Is(runErr, mirror.ErrBusy) {
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), sharelink.FormatSummary(elapsed, tally))

	if runErr != nil {
		fmt.Fprintln(cmd.OutOrStdout(), sharelink.FormatFailure(runErr))
	}

	return runErr
}

// shareFromArgs takes the share from explicit flags when --key is set,
// otherwise from the positional message.
func shareFromArgs(cmd *cobra.Command, args []string) (mirror.Share, error) {
	domain, _ := cmd.Flags().GetString("domain")
	key, _ := cmd.Flags().GetString("key")
	pwd, _ := cmd.Flags().GetString("pwd")

	if key != "" {
		if len(args) > 0 {
			return mirror.Share{}, errors.New("give either a share link or --key, not both")
		}

		if domain == "" {
			return mirror.Share{}, errors.New("--domain is required with --key")
		}

		return mirror.Share{Domain: strings.ToLower(domain), Key: key, Password: pwd}, nil
	}

	if len(args) == 0 {
		return mirror.Share{}, errors.New("a share link or --domain/--key/--pwd is required")
	}

	link, err := sharelink.Parse(args[0])
	if err != nil {
		return mirror.Share{}, fmt.Errorf("%s: %w", sharelink.BadFormatReply, err)
	}

	return link.Share(), nil
}
