package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matriops/lifeline/app"
	"github.com/matriops/lifeline/config"
	"github.com/matriops/lifeline/core/model"
	"github.com/matriops/lifeline/infra/logger"
)

var sosCmd = &cobra.Command{
	Use:   "sos",
	Short: "Inject a test SOS and run a full mission locally",
	RunE:  runSOS,
}

func init() {
	rootCmd.AddCommand(sosCmd)
}

// runSOS exercises the full mission lifecycle against an in-memory service:
// raise, assign, arrive, complete. Useful as a smoke test of a deployment's
// configuration without real patients or drivers.
func runSOS(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.MQTT.Enabled = false
	cfg.Metrics.PrometheusEnabled = false
	cfg.Metrics.InfluxEnabled = false
	cfg.TripLog.Backend = "memory"

	logg := logger.New("sos-command")
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(cfg.Fleet.Responders) == 0 {
		if err := svc.Fleet.Register(ctx, model.Responder{
			ID:       "test-unit",
			Name:     "Test Unit",
			Kind:     model.KindAmbulance,
			Position: model.Position{Lat: 23.8103, Lng: 90.4125},
		}); err != nil {
			return err
		}
	}
	units, err := svc.Fleet.List(ctx)
	if err != nil {
		return err
	}
	unit := units[0]
	if err := svc.Fleet.SetOnline(ctx, unit.ID, true); err != nil {
		return err
	}

	a, err := svc.Alerts.Create(ctx, model.Alert{
		PatientID: "test-patient",
		Name:      "Test Patient",
		Phone:     "+8801000000000",
		Position:  model.Position{Lat: 23.7805, Lng: 90.4000},
	})
	if err != nil {
		return err
	}
	fmt.Printf("alert raised: %s (%s)\n", a.PatientID, a.Status)

	if err := svc.Coordinator.Assign(ctx, a.PatientID, unit.ID, model.ActorDoctor); err != nil {
		return err
	}
	fmt.Printf("assigned to %s\n", unit.ID)
	if err := svc.Coordinator.MarkArrived(ctx, a.PatientID, unit.ID); err != nil {
		return err
	}
	fmt.Println("responder arrived")
	if err := svc.Coordinator.Complete(ctx, a.PatientID, unit.ID); err != nil {
		return err
	}
	fmt.Println("mission completed")
	return nil
}
