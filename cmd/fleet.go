package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matriops/lifeline/config"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured responder units",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, seed := range cfg.Fleet.Responders {
		resp := seed.Model()
		fmt.Printf("%s\t%s\t%s\t%.4f,%.4f\n", resp.ID, resp.Name, resp.Kind, resp.Position.Lat, resp.Position.Lng)
	}
	return nil
}
