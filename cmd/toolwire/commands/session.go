package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tanmosh/toolwire/pkg/steer/steercfg"
)

var sessionFile string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect orchestration session definitions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a session definition with defaults applied",
	Long: `Load a session definition from a YAML or JSON file, apply defaults,
and print the normalized result as YAML. With no --file, print the
all-defaults session.

Examples:
  toolwire session show
  toolwire session show -f session.yaml`,
	RunE: runSessionShow,
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	var s *steercfg.Session
	if sessionFile == "" {
		s = &steercfg.Session{}
		s.Normalize()
	} else {
		loaded, err := steercfg.LoadSession(sessionFile)
		if err != nil {
			return err
		}
		s = loaded
	}

	if err := writeValue(cmd.OutOrStdout(), s, true); err != nil {
		return fmt.Errorf("render session: %w", err)
	}
	return nil
}

func init() {
	sessionShowCmd.Flags().StringVarP(&sessionFile, "file", "f", "", "session definition file")
	sessionCmd.AddCommand(sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
