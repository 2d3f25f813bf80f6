package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/folio/internal/app"
	"github.com/five82/folio/internal/ui"
)

type rootFlags struct {
	configPath  string
	prefsPath   string
	pollSeconds int
	theme       string
}

func (f rootFlags) options() app.Options {
	opts := app.Options{
		ConfigPath: f.configPath,
		PrefsPath:  f.prefsPath,
		ThemeName:  f.theme,
	}
	if f.pollSeconds > 0 {
		opts.PollEvery = time.Duration(f.pollSeconds) * time.Second
	}
	return opts
}

// validate rejects a --theme that names no known theme.
func (f rootFlags) validate() error {
	if f.theme == "" || slices.Contains(ui.ThemeNames(), f.theme) {
		return nil
	}
	return fmt.Errorf("unknown theme %q (choose from %s)", f.theme, strings.Join(ui.ThemeNames(), ", "))
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "folio: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Terminal client for the community book library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/folio/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/folio/prefs.toml)")
	pf.IntVar(&flags.pollSeconds, "poll", 0, "discussion refresh interval in seconds")
	pf.StringVar(&flags.theme, "theme", "", "color theme: "+strings.Join(ui.ThemeNames(), ", "))

	root.AddCommand(
		newLoginCommand(flags),
		newRegisterCommand(flags),
		newLogoutCommand(flags),
		newWhoamiCommand(flags),
		newBooksCommand(flags),
		newUploadCommand(flags),
		newEditCommand(flags),
		newAssistantProxyCommand(flags),
	)
	return root
}
