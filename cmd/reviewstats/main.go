package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johnqtcg/reviewstats/internal/cli"
	"github.com/johnqtcg/reviewstats/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	runner := cli.NewApp(cli.AppDeps{})
	code := runWithRunner(ctx, os.Args[1:], runner, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func runWithRunner(ctx context.Context, args []string, runner cli.Runner, stdout, stderr io.Writer) int {
	// cobra falls back to os.Args for nil args.
	if args == nil {
		args = []string{}
	}

	code := cli.ExitOK
	cmd := newRootCommand(runner, args, &code)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintf(stderr, "Run 'reviewstats --help' for usage.\n")
		return cli.ExitInvalidArguments
	}
	return code
}

// newRootCommand validates flags against the loader's flag set and then hands
// the raw arguments to the runner, which resolves them against env and config
// file sources.
func newRootCommand(runner cli.Runner, rawArgs []string, code *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewstats",
		Short: "Post pull request review statistics to Slack",
		Long: "reviewstats pulls recently merged pull requests from GitHub, computes reviewer and pull request statistics, prints them and posts them to a Slack incoming webhook.\n\n" +
			"Flags override action inputs (INPUT_*), environment variables and the YAML config file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			*code = runner.Run(cmd.Context(), rawArgs)
			return nil
		},
	}
	root.Flags().SortFlags = false
	root.Flags().AddFlagSet(config.Flags())
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the reviewstats version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reviewstats %s\n", version)
		},
	}
}
