package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ivlev/slideshow/internal/app"
	"github.com/ivlev/slideshow/internal/config"
)

const envPrefix = "SLIDESHOW"

// Flag and configuration keys. Each can also be set as SLIDESHOW_<KEY>,
// with dashes turned into underscores.
const (
	keySettings = "settings"
	keyEffects  = "effects"
	keyLogFile  = "log-file"
	keyLogLevel = "log-level"
	keyFPS      = "fps"
	keyEasing   = "easing"
)

// env carries the resolved process options to every subcommand.
type env struct {
	v *viper.Viper
}

func (e *env) settingsPath() string { return e.v.GetString(keySettings) }

func (e *env) logger(w io.Writer) *slog.Logger {
	return app.NewLogger(w, e.v.GetString(keyLogLevel))
}

func (e *env) store(w io.Writer) (*config.Store, error) {
	return config.NewStore(e.settingsPath(), e.logger(w))
}

// NewRootCmd builds the slideshow command tree.
func NewRootCmd() *cobra.Command {
	e := &env{v: viper.New()}
	e.v.SetEnvPrefix(envPrefix)
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "slideshow",
		Short: "Full-screen image slideshow for the terminal",
		Long: `slideshow cycles through the images of one folder with animated
transitions. Press any key or click to leave; move the mouse to reveal the
settings button.

Settings are kept in settings.yaml next to the executable unless --settings
points elsewhere (.yaml, .toml and .json are understood).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				SettingsPath: e.settingsPath(),
				EffectsPath:  e.v.GetString(keyEffects),
				LogFile:      e.v.GetString(keyLogFile),
				LogLevel:     e.v.GetString(keyLogLevel),
				FPS:          e.v.GetInt(keyFPS),
				Easing:       e.v.GetString(keyEasing),
			})
		},
	}

	pf := root.PersistentFlags()
	pf.String(keySettings, "", "settings file (default settings.yaml next to the executable)")
	pf.String(keyLogLevel, "info", "log level: debug, info, warn or error")
	pf.String(keyEffects, "", "YAML file with extra transition effects")

	f := root.Flags()
	f.String(keyLogFile, "", "log file (default slideshow.log next to the settings file)")
	f.Int(keyFPS, 30, "animation frames per second")
	f.String(keyEasing, "smooth", "transition easing: smooth or linear")

	_ = e.v.BindPFlags(pf)
	_ = e.v.BindPFlags(f)

	root.AddCommand(
		scanCmd(e),
		checkCmd(e),
		settingsCmd(e),
		effectsCmd(e),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
