package controllers

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "controllers-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}
