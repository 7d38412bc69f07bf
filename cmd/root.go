package cmd

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/smallsh/commands"
	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/launch"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/pool"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	commandLine string

	// exitStatus is the shell's return value, set by rootCmd.
	exitStatus int
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// loadShellConfig is like loadConfig, but falls back to the built-in defaults
// when no configuration has been written yet.
func loadShellConfig() (*config.Configuration, error) {
	configuration, err := loadConfig()
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small shell",
	Long: `A small interactive shell that runs programs in the foreground or
background, with < and > redirection and $$ expansion.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadShellConfig()
		if err != nil {
			return err
		}

		appLog := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)

		eventLog, err := cfg.OpenEventLog()
		if err != nil {
			return err
		}
		defer eventLog.Close()
		session := logger.NewJsonLinesLogRecorder(eventLog).NewSession()

		interactive := !cmd.Flags().Changed("command")

		var rl *readline.Instance
		var notices io.Writer = cmd.OutOrStdout()
		if interactive {
			rl, err = commands.NewReadline(cfg, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rl.Close()
			notices = rl
		}

		printer := commands.ColorPrinter{Mode: cfg.Color}
		p := pool.New(
			pool.WithNotices(notices),
			pool.WithColor(printer.ShouldColor()),
			pool.WithReapInterval(cfg.ReapInterval()),
			pool.WithForegroundOnly(cfg.ForegroundOnly),
			pool.WithRecorder(session),
			pool.WithLogger(appLog),
		)
		defer p.Close()

		launcher := launch.New(p)
		launcher.Recorder = session
		launcher.Log = appLog

		shell := commands.NewShell(cfg, p, launcher, cmd.OutOrStdout(), cmd.ErrOrStderr())
		shell.Readline = rl
		shell.Log = appLog

		if interactive {
			exitStatus = shell.RunInteractive()
		} else {
			shell.RunCommand(commandLine)
			exitStatus = shell.LastReturn()
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitStatus)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single command line and exit")
}
