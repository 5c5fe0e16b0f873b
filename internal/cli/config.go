package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/pipeline"
)

const defaultConfigFile = "analysis.toml"

// configCommand creates the analysis file command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage analysis files",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an analysis file with the default options",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeDefaultConfig(path, force); err != nil {
				return err
			}
			printSuccess("Wrote %s", path)
			printNextStep("Run an analysis with it", fmt.Sprintf("%s analyze cells.tsv --config %s", appName, path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Print the effective options of an analysis file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := pipeline.LoadOptions(args[0])
			if err != nil {
				return err
			}
			return pipeline.WriteOptions(cmd.OutOrStdout(), opts)
		},
	}
}

// writeDefaultConfig writes the default options to path. An existing file is
// kept unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if os.IsExist(err) {
		return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := pipeline.WriteOptions(f, pipeline.DefaultOptions()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
