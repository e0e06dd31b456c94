package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/config"
	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

var configFile string

// loadConfig reads and validates the configuration, logging to stderr so stdout stays
// reserved for command output.
func loadConfig() (*config.Manager, *logrus.Logger, error) {
	var (
		m   *config.Manager
		err error
	)
	if configFile != "" {
		m, err = config.NewManagerWithFile(configFile)
	} else {
		m, err = config.NewManager()
	}
	if err != nil {
		return nil, nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	logging := m.GetConfig().Logging
	logging.Output = "stderr"
	return m, config.NewLogger(logging), nil
}

func requirePostgres(m domain.ConfigManager) error {
	if driver := m.GetStoreConfig().Driver; driver != "postgres" {
		return fmt.Errorf("migrations apply to the postgres driver, configured driver is %s", driver)
	}
	return nil
}
