package sinks

import (
	"log/slog"

	"github.com/Labs64/labs64.io-auditflow/common/delivery"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
	"github.com/Labs64/labs64.io-auditflow/sink/internal/netlicensing"
)

// Register adds the built-in sinks to the registry. client carries the
// service-wide delivery defaults; sinks with their own timeout and retry
// properties build per-request clients instead.
func Register(r *plugin.Registry[plugin.Sink], logger *slog.Logger, client *delivery.Client) {
	r.Register("logging", NewLogging(logger))
	r.Register("syslog", NewSyslog())
	r.Register("webhook", NewWebhook())
	r.Register("loki", NewLoki(client))
	r.Register("opensearch", NewOpenSearch())
	r.Register("netlicensing", netlicensing.NewSink())
}
