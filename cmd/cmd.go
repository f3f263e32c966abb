/*package cmd contains the lensfish command line modes.*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phil-mansfield/lensfish/config"
	"github.com/phil-mansfield/lensfish/logging"
	"github.com/phil-mansfield/lensfish/version"
)

// Execute runs the root command and exits with a non-zero status on
// failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globals are the flags shared by every mode.
type globals struct {
	settingsFile string
	logMode      string
}

// settings reads the settings file, or returns the defaults if none was
// given.
func (g *globals) settings() (*config.Settings, error) {
	if g.settingsFile == "" {
		return config.DefaultSettings(), nil
	}
	return config.ReadSettings(g.settingsFile)
}

// NewRootCmd returns the lensfish command with every mode attached.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:          "lensfish",
		Short:        "lensfish evaluates strong gravitational lens models",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := logging.ParseFlag(g.logMode)
			if err != nil {
				return err
			}
			logging.Setup(cmd.ErrOrStderr(), mode)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&g.settingsFile, "settings", "s", "",
		"settings file (defaults are used if omitted)")
	root.PersistentFlags().StringVar(&g.logMode, "log", logging.Nil.String(),
		"logging mode: nil, performance or debug")

	root.AddCommand(versionCmd(), configCmd(), evaluateCmd(g))
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the source",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lensfish version %s\n",
				version.SourceVersion)
		},
	}
}

func configCmd() *cobra.Command {
	var model bool

	c := &cobra.Command{
		Use:   "config",
		Short: "Print an example settings file or model file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			if model {
				io.WriteString(w, exampleModel)
			} else {
				fmt.Fprintln(w, new(config.Settings).ExampleConfig())
			}
		},
	}
	c.Flags().BoolVar(&model, "model", false, "print an example model instead")
	return c
}

const exampleModel = `# A lens model: galaxies with a redshift and an ordered set of named
# profiles. Every profile entry is a single profile, never a list.
galaxies:
  - name: lens
    redshift: 0.5
    profiles:
      mass:
        kind: isothermal
        centre: [0.0, 0.0]
        elliptical_comps: [0.05, 0.0]
        einstein_radius: 1.6
      shear:
        kind: external_shear
        elliptical_comps: [0.02, 0.01]
      light:
        kind: dev_vaucouleurs
        intensity: 0.3
        effective_radius: 1.0
  - name: source
    redshift: 1.0
    profiles:
      light:
        kind: sersic
        centre: [0.05, 0.1]
        intensity: 1.0
        effective_radius: 0.2
        sersic_index: 1.5
`
