package main

import "github.com/spf13/cobra"

// newRunCmd creates the run subcommand (main command)
func newRunCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] <operation> [args...]",
		Short: "Run an operation in every selected container",
		Long:  runUsage,
		// Flags are parsed by pkg/cli so unknown ones reach the operation.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, d)
		},
	}
}

// newListCmd creates the list subcommand
func newListCmd(d deps) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List containers",
		Long:  `List the containers pct reports on this host. Only running containers are shown unless --all is given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, d, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include stopped containers")

	return cmd
}

// newOperationsCmd creates the operations subcommand
func newOperationsCmd(d deps) *cobra.Command {
	var install, force bool

	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"ops"},
		Short:   "List available operations",
		Long: `List the operation scripts found in the operations directory.

With --install, the operations bundled with lxcrun are copied into the
operations directory first. Existing scripts are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperations(cmd, d, install, force)
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Install the bundled operations")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing scripts when installing")

	return cmd
}

// newDoctorCmd creates the doctor subcommand
func newDoctorCmd(d deps) *cobra.Command {
	var fix, yes bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that this host can run operations",
		Long: `Check root privileges, the pct toolkit and the operations directory.

With --fix, checks that have a known remedy are fixed after confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, d, fix, yes)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Run fix commands for failed checks")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before running fix commands")

	return cmd
}
