package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/siamese/internal/config"
	"github.com/born-ml/siamese/internal/parallel"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "v0.1.0-dev"

// NewCLI builds the root command with every subcommand attached.
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "siamese",
		Short:         "Run nets of siamese-training layers",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Parallel()
			parallel.SetDefault(cfg)
			klog.V(1).Infof("parallel: enabled=%t workers=%d min_chunk=%d", cfg.Enabled, cfg.NumWorkers, cfg.MinChunkSize)
		},
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	runCmd := newRunCmd()
	appendEnvDocs(runCmd)

	rootCmd.AddCommand(
		runCmd,
		newLayersCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "siamese version %s\n", version)
		},
	}
}

// appendEnvDocs lists the environment settings in the command's help.
func appendEnvDocs(cmd *cobra.Command) {
	envs := config.AsMap()
	names := make([]string, 0, len(envs))
	for name := range envs {
		names = append(names, name)
	}
	sort.Strings(names)

	usage := `
Environment Variables:
`
	for _, name := range names {
		usage += fmt.Sprintf("      %-24s   %s\n", name, envs[name].Description)
	}
	cmd.SetUsageTemplate(cmd.UsageTemplate() + usage)
}
