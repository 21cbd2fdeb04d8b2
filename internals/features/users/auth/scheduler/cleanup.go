package scheduler

import (
	"context"
	"time"

	"campusku_backend/internals/configs"
	"campusku_backend/internals/features/users/auth/service"

	"github.com/robfig/cron/v3"
)

// DefaultCleanupSpec runs the sweep every 30 minutes.
const DefaultCleanupSpec = "@every 30m"

// StartCleanupScheduler sweeps the token blacklist, dead refresh tokens and
// stale OTP challenges. Stop the returned cron on shutdown.
func StartCleanupScheduler(svc *service.Service, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultCleanupSpec
	}
	logg := configs.GetLogger()

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	_, err := c.AddFunc(spec, func() { runCleanup(svc) })
	if err != nil {
		return nil, err
	}
	c.Start()
	logg.WithField("spec", spec).Info("[CLEANUP] scheduler started")
	return c, nil
}

func runCleanup(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := svc.Cleanup(ctx)
	if err != nil {
		configs.LogError(configs.GetLogger(), "scheduler", "runCleanup", "cleanup", res, err)
		return
	}
	configs.GetLogger().WithField("blacklist", res.Blacklist).
		WithField("refresh_tokens", res.RefreshTokens).
		WithField("otp", res.OTP).
		Info("[CLEANUP] done")
}
