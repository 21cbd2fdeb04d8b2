package configs

import (
	"strings"

	"github.com/rollbar/rollbar-go"
)

var rollbarEnabled bool

func initRollbar(token, env string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetServerRoot("campusku_backend")
	rollbarEnabled = true
	GetLogger().Info("rollbar error reporting enabled")
}

// ReportError forwards unexpected (5xx) errors to Rollbar when configured.
func ReportError(err error, extras map[string]interface{}) {
	if !rollbarEnabled || err == nil {
		return
	}
	rollbar.Error(err, extras)
}

// FlushReports blocks until queued Rollbar items are sent.
func FlushReports() {
	if rollbarEnabled {
		rollbar.Wait()
	}
}
