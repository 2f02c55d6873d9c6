package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/tape"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Process exit codes
const (
	exitOK          = 0
	exitRuntime     = 1
	exitParse       = 2
	exitEnvironment = 3
	exitInternal    = 4
)

func exitCode(err error) int {
	switch errors.CategoryOf(err) {
	case errors.CategoryNone:
		return exitOK
	case errors.CategoryParse:
		return exitParse
	case errors.CategoryEnvironment:
		return exitEnvironment
	case errors.CategoryInternal:
		return exitInternal
	}
	return exitRuntime
}

type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bfjit [flags] FILE",
		Short: "Compile and run tape language programs as native AArch64 code",
		Long: `bfjit parses a program, optimizes it, compiles it to AArch64 machine
code in executable memory and runs it. Program input is read from stdin and
output is written to stdout.

Configuration is read from ~/.bfjit.yaml (or --config) and from BFJIT_*
environment variables, for example BFJIT_TAPE_SIZE=65536.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args)
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.Flags()
	flags.StringP("code", "c", "", "Program source to run instead of a file")
	flags.Bool("no-jit", false, "Run on the interpreter instead of native code")
	flags.Bool("fallback", false, "Use the interpreter when native code is unsupported on this host")
	flags.Int("tape-size", tape.DefaultSize, "Number of tape cells")
	flags.Bool("no-bounds-check", false, "Do not trap on accesses outside the tape (native code only)")
	flags.String("eof", "zero", "Value stored at end of input: zero, unchanged or max")
	flags.StringSlice("disable-pass", nil, "Optimization pass to disable: coalesce, zero-idiom or offset-fold")
	flags.String("dump", "", "Print the optimized program instead of running it: ir or asm")
	flags.Bool("stats", false, "Print compile and run statistics as JSON to stderr")
	flags.String("config", "", "Config file (default is $HOME/.bfjit.yaml)")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error or disabled")
	flags.Bool("no-color", false, "Disable colored output")
	cmd.RegisterFlagCompletionFunc("dump", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"ir", "asm"}, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.RegisterFlagCompletionFunc("eof", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"zero", "unchanged", "max"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// initConfig layers flags over environment variables over the config file.
func (a *app) initConfig(cmd *cobra.Command) error {
	v := a.v
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("bfjit")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// NO_COLOR is honored regardless of prefix
	if err := v.BindEnv("no-color", "BFJIT_NO_COLOR", "NO_COLOR"); err != nil {
		return err
	}

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigName(".bfjit")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), stdin: stdin, stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprint(stderr, errors.Format(err, a.useColor(stderr)))
	}
	return exitCode(err)
}
