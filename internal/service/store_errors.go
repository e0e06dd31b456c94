package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pgx-interpreter-mcp-server/internal/domain"
)

// storeFailure logs the real cause of a store failure and returns the redacted StoreError.
func storeFailure(logger *logrus.Logger, op string, err error, fields logrus.Fields) error {
	logger.WithFields(fields).WithError(err).WithField("operation", op).Error("Reference store lookup failed")
	return &domain.StoreError{Op: op, Err: err}
}
