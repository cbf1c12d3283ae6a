// Package seeder generates realistic audit events for exercising the
// dispatch services during development.
package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

var eventTypes = []string{
	"user.login",
	"user.logout",
	"user.password.changed",
	"document.created",
	"document.deleted",
	"checkout.transaction.completed",
	"license.validated",
}

var sourceSystems = []string{"iam", "vault", "checkout", "netlicensing", "auditflow-demo"}

var statuses = []string{"SUCCESS", "SUCCESS", "SUCCESS", "FAILURE", "PENDING"}

// Generator produces audit events with jittered timestamps spread over a
// time window ending now.
type Generator struct {
	rng *rand.Rand
}

// New seeds a generator. seed 0 derives one from the clock.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Events generates count audit events spread over window.
func (g *Generator) Events(count int, window time.Duration) []map[string]interface{} {
	events := make([]map[string]interface{}, 0, count)
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		events = append(events, g.Event(g.eventTime(now, window, i, count)))
	}
	return events
}

// Event generates one audit event with the given timestamp.
func (g *Generator) Event(timestamp time.Time) map[string]interface{} {
	eventType := g.pick(eventTypes)
	status := g.pick(statuses)

	event := map[string]interface{}{
		"eventType":    eventType,
		"sourceSystem": g.pick(sourceSystems),
		"tenantId":     fmt.Sprintf("T%06d", g.rng.Intn(1000000)),
		"meta": map[string]interface{}{
			"eventType":    eventType,
			"sourceSystem": g.pick(sourceSystems),
			"timestamp":    timestamp.Format(time.RFC3339),
		},
		"actor": map[string]interface{}{
			"userId":    uuid.NewString(),
			"username":  gofakeit.Username(),
			"ipAddress": gofakeit.IPv4Address(),
			"userAgent": gofakeit.UserAgent(),
		},
		"action": map[string]interface{}{
			"name":   eventType,
			"status": status,
		},
		"resource": map[string]interface{}{
			"id":   uuid.NewString(),
			"type": g.pick([]string{"user", "document", "transaction", "license"}),
		},
		"context": map[string]interface{}{
			"sessionId": uuid.NewString(),
			"geo": map[string]interface{}{
				"country":   gofakeit.CountryAbr(),
				"city":      gofakeit.City(),
				"latitude":  gofakeit.Latitude(),
				"longitude": gofakeit.Longitude(),
			},
		},
		"extra": map[string]interface{}{
			"action_name":   eventType,
			"action_status": status,
		},
	}

	if eventType == "checkout.transaction.completed" {
		event["extra"] = g.checkoutExtra(status)
	}
	return event
}

// checkoutExtra shapes the extra section the way the checkout module emits
// transactions, so seeded events exercise the provisioning workflow.
func (g *Generator) checkoutExtra(status string) map[string]interface{} {
	txStatus := "COMPLETED"
	if status == "FAILURE" {
		txStatus = "FAILED"
	}
	return map[string]interface{}{
		"transaction": map[string]interface{}{
			"id":            uuid.NewString(),
			"status":        txStatus,
			"paymentMethod": g.pick([]string{"STRIPE", "PAYPAL", "INVOICE"}),
			"billingInfo": map[string]interface{}{
				"country": gofakeit.CountryAbr(),
				"city":    gofakeit.City(),
			},
			"purchaseOrder": map[string]interface{}{
				"id":       uuid.NewString(),
				"currency": g.pick([]string{"EUR", "USD"}),
				"customer": map[string]interface{}{
					"id":        uuid.NewString(),
					"firstName": gofakeit.FirstName(),
					"lastName":  gofakeit.LastName(),
					"email":     gofakeit.Email(),
				},
				"items": []interface{}{
					map[string]interface{}{
						"name":     gofakeit.ProductName(),
						"sku":      fmt.Sprintf("PROD-%03d", g.rng.Intn(1000)),
						"quantity": g.rng.Intn(3) + 1,
						"price":    g.rng.Intn(20000) + 100,
						"extra": map[string]interface{}{
							"productNumber":         fmt.Sprintf("P%03d", g.rng.Intn(1000)),
							"licenseTemplateNumber": fmt.Sprintf("LT%03d", g.rng.Intn(1000)),
						},
					},
				},
			},
		},
	}
}

// eventTime spreads events backwards from now over the window with jitter.
func (g *Generator) eventTime(now time.Time, window time.Duration, index, total int) time.Time {
	if total <= 0 {
		return now
	}
	baseInterval := float64(window) / float64(total)
	baseOffset := time.Duration(float64(index) * baseInterval)

	jitterRange := baseInterval * 0.4
	jitter := time.Duration((g.rng.Float64()*2.0 - 1.0) * jitterRange)

	totalOffset := baseOffset + jitter
	if totalOffset < 0 {
		totalOffset = 0
	}
	if totalOffset > window {
		totalOffset = window
	}
	return now.Add(-(window - totalOffset))
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}
