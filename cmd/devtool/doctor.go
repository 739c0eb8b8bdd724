package main

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/banklink/internal/config"
)

type DoctorCommand struct{}

func (c *DoctorCommand) Name() string {
	return "doctor"
}

func (c *DoctorCommand) Description() string {
	return "Diagnose environment issues (env + config + db)"
}

func (c *DoctorCommand) Run(ctx context.Context, args []string) error {
	PrintHeader("Running Doctor...")

	hasError := false

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		PrintError("Environment check failed: %v", err)
		hasError = true
	} else {
		for _, w := range warnings {
			PrintWarning("%s", w)
		}
		PrintSuccess("Environment OK")
	}

	cfg, err := config.Load()
	if err != nil {
		PrintError("Configuration failed to load: %v", err)
		return fmt.Errorf("doctor found issues")
	}
	PrintInfo("backend=%s store=%s port=%d", cfg.BackendMode, cfg.Store, cfg.Port)

	if cfg.UsesPostgres() {
		if err := waitForDB(ctx, cfg.GetDBConnString(), 1, time.Second); err != nil {
			PrintError("Database check failed: %v", err)
			hasError = true
		}
	}

	if hasError {
		return fmt.Errorf("doctor found issues")
	}

	PrintSuccess("All systems operational!")
	return nil
}
