package healthcheck

import (
	"context"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	logger    zerolog.Logger = log.Logger
	terminate                = terminateService
)

func SetLogger(customLogger zerolog.Logger) {
	logger = customLogger
}

// ConnectionChecker reports whether a long lived connection is still usable.
type ConnectionChecker interface {
	IsConnectionHealthy() error
}

// StartHealthCheckCron checks the outcome queue connection every cronTime
// seconds and terminates the service once it is lost.
func StartHealthCheckCron(ctx context.Context, checker ConnectionChecker, cronTime int) error {
	c := cron.New()
	logger.Info().Msg("Initiated Health Check Cron")

	if cronTime == 0 {
		cronTime = 60
	}

	cronSpec := fmt.Sprintf("@every %ds", cronTime)

	_, err := c.AddFunc(cronSpec, func() {
		queueHealthCheck(checker)
	})

	if err != nil {
		return err
	}

	c.Start()

	go func() {
		<-ctx.Done()
		logger.Info().Msg("Stopping Health Check Cron")
		c.Stop()
	}()

	return nil
}

func queueHealthCheck(checker ConnectionChecker) {
	if err := checker.IsConnectionHealthy(); err != nil {
		logger.Error().Err(err).Msg("Outcome queue connection is not healthy.")
		terminate()
	}
}

func terminateService() {
	logger.Fatal().Msg("Terminating service due to health check failure.")
	os.Exit(1)
}
