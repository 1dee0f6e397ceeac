package terminal

import (
	"io"
	"os"

	"github.com/fieldtools/site-report/pkg/runtime/terminal/commands"
	"github.com/fieldtools/site-report/pkg/services/assembler"
	"github.com/fieldtools/site-report/pkg/services/render"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Assembler assembler.Service
	Engine    render.Engine
	Logger    zerolog.Logger
	Output    io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{}
	cli.rootCmd = cli.newRootCmd(opts)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site-report",
		Short: "Site visit report tool",
	}

	cmd.AddCommand(commands.NewRenderCmd(opts.Assembler, opts.Engine, opts.Logger, opts.Output))

	return cmd
}
