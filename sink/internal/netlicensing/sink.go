package netlicensing

import (
	"context"
	"strconv"
	"time"

	"github.com/Labs64/labs64.io-auditflow/common/delivery"
	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
)

// Sink adapts the provisioning workflow to the sink plugin contract.
type Sink struct{}

func NewSink() *Sink {
	return &Sink{}
}

// Process provisions NetLicensing entities for a checkout transaction.
// Properties:
//
//	api-key:                 NetLicensing API key (required)
//	base-url:                API base URL (default production endpoint)
//	product-number:          fallback product number (optional)
//	license-template-number: fallback license template (optional)
//	quantity-to-licensee:    one licensee per unit (default false)
//	mark-for-transfer:       flag licensees for transfer (default true)
//	save-transaction-data:   store checkout details on licensee (default true)
//	timeout:                 per-attempt timeout in seconds (default 30)
//	retry-count:             total attempts (default 3)
func (s *Sink) Process(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
	apiKey := props.Get("api-key", "")
	if apiKey == "" {
		return nil, plugin.MissingProperty("api-key")
	}

	timeoutSec, err := strconv.Atoi(props.Get("timeout", "30"))
	if err != nil {
		return nil, &plugin.ConfigError{Field: "timeout", Reason: "must be an integer"}
	}
	retryCount, err := strconv.Atoi(props.Get("retry-count", "3"))
	if err != nil {
		return nil, &plugin.ConfigError{Field: "retry-count", Reason: "must be an integer"}
	}

	client := NewClient(
		props.Get("base-url", DefaultBaseURL),
		apiKey,
		delivery.NewClient(time.Duration(timeoutSec)*time.Second, retryCount),
	)

	opts := Options{
		DefaultProductNumber:   props.Get("product-number", ""),
		DefaultLicenseTemplate: props.Get("license-template-number", ""),
		QuantityToLicensee:     props.Bool("quantity-to-licensee", false),
		MarkForTransfer:        props.Bool("mark-for-transfer", true),
		SaveTransactionData:    props.Bool("save-transaction-data", true),
	}

	return NewProvisioner(client).Provision(ctx, event, opts)
}
