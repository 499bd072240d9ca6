package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mdtty/mdtty/pkg/markdown"
	"github.com/mdtty/mdtty/pkg/render"
	"github.com/mdtty/mdtty/pkg/resources"
	"github.com/mdtty/mdtty/pkg/terminal"
	"github.com/mdtty/mdtty/pkg/util"
)

var (
	flagLocal      bool
	flagColumns    int
	flagNoColour   bool
	flagAnsi       bool
	flagFailFast   bool
	flagVerbose    bool
	flagDumpEvents bool
)

var rootCmd = NewRootCmd()

func RootCmd() *cobra.Command {
	return rootCmd
}

func Execute(version string, gitCommit string) error {
	rootCmd.Version = version + " (" + gitCommit + ")"

	return rootCmd.Execute()
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mdtty [filename]...",
		Short:         "Render CommonMark documents in the terminal",
		Long:          `mdtty renders Markdown files with colours, hyperlinks and inline images, tuned to what the current terminal supports`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				util.EnableLogging()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}

	rootCmd.Flags().BoolVarP(&flagLocal, "local", "l", false, "Resolve local resources only, never the network")
	rootCmd.Flags().IntVar(&flagColumns, "columns", 0, "Maximum number of columns (default: terminal width)")
	rootCmd.Flags().BoolVar(&flagNoColour, "no-colour", false, "Disable all styling")
	rootCmd.Flags().BoolVar(&flagAnsi, "ansi", false, "Skip terminal detection, use plain ANSI formatting")
	rootCmd.Flags().BoolVar(&flagFailFast, "fail", false, "Stop at the first file that cannot be read")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Write debugging output to stderr")
	rootCmd.Flags().BoolVar(&flagDumpEvents, "dump-events", false, "Print the parsed event stream instead of rendering")

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"-"}
	}

	caps := detectCapabilities()
	size := terminal.DetectSize(terminal.OSEnviron, flagColumns)
	handler := buildHandler(cmd.Root().Version)

	var failed bool
	for _, name := range args {
		if err := renderFile(cmd, name, caps, size, handler); err != nil {
			if errors.Is(err, syscall.EPIPE) {
				// Reader went away; not an error.
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "mdtty: %s: %v\n", name, err)
			if flagFailFast {
				return ErrorReading
			}
			failed = true
		}
	}
	if failed {
		return ErrorReading
	}
	return nil
}

// detectCapabilities maps the colour flags onto the detection entry
// point. Piped output renders like a dumb terminal unless ANSI is
// forced.
func detectCapabilities() terminal.Capabilities {
	if flagNoColour {
		return terminal.Dumb.Capabilities()
	}
	if flagAnsi {
		return terminal.Detect(terminal.OSEnviron, true)
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return terminal.Dumb.Capabilities()
	}
	return terminal.Detect(terminal.OSEnviron, false)
}

func buildHandler(userAgent string) resources.Handler {
	handlers := resources.Dispatch{resources.FileHandler{}}
	if !flagLocal {
		handlers = append(handlers, resources.NewHTTPHandler("mdtty "+userAgent))
	}
	return handlers
}

func renderFile(cmd *cobra.Command, name string, caps terminal.Capabilities, size terminal.Size, handler resources.Handler) error {
	var source []byte
	var base *url.URL
	var err error

	if name == "-" {
		source, err = io.ReadAll(cmd.InOrStdin())
	} else {
		source, err = os.ReadFile(name)
		if err == nil {
			if abs, absErr := filepath.Abs(filepath.Dir(name)); absErr == nil {
				base = &url.URL{Scheme: "file", Path: abs + "/"}
			}
		}
	}
	if err != nil {
		return err
	}

	events, err := markdown.Events(source)
	if err != nil {
		return err
	}

	if flagDumpEvents {
		for _, ev := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "%#v\n", ev)
		}
		return nil
	}

	renderer := render.New(cmd.OutOrStdout(), caps, size,
		render.WithPolicy(render.Policy{AllowNetwork: !flagLocal, MaxColumns: flagColumns}),
		render.WithEnvironment(environment(base)),
		render.WithResourceHandler(handler),
		render.WithLogger(util.Logger),
	)
	return renderer.Render(events)
}

func environment(base *url.URL) render.Environment {
	hostname, _ := os.Hostname()
	return render.Environment{Base: base, Hostname: hostname}
}
