package transformers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
)

func auditEvent() envelope.Event {
	return envelope.Event{
		"timestamp":    "2025-07-04T10:00:00Z",
		"eventId":      "fedcba98-7654-3210-fedc-ba9876543210",
		"eventType":    "audit.action.performed",
		"sourceSystem": "netlicensing/core",
		"tenantId":     "tenant-001",
		"geolocation": map[string]any{
			"lat":         48.1351,
			"lon":         11.5820,
			"city":        "Munich",
			"region":      "Bavaria",
			"country":     "Germany",
			"countryCode": "DE",
		},
		"extra": map[string]any{
			"userId":         "user123",
			"browser":        "Chrome",
			"action_name":    "LOGIN_SUCCESS",
			"action_status":  "SUCCESS",
			"action_message": "User logged in successfully",
		},
	}
}

func TestAuditOpenSearch(t *testing.T) {
	out, err := AuditOpenSearch{}.Transform(context.Background(), auditEvent())
	require.NoError(t, err)

	assert.Equal(t, "audit.action.performed", out["event_type"])
	assert.Equal(t, "netlicensing/core", out["source_system"])
	assert.Equal(t, "tenant-001", out["tenant_id"])
	assert.Equal(t, "LOGIN_SUCCESS", out["action_name"])
	assert.Equal(t, "SUCCESS", out["action_status"])
	assert.Equal(t, map[string]any{"lat": 48.1351, "lon": 11.5820}, out["location"])
	assert.Equal(t, "Munich", out["location_city"])
	assert.Equal(t, "DE", out["location_country_code"])
	assert.Equal(t, "user123", out.Section("extra").String("userId", ""))
}

func TestAuditOpenSearchPartialCoordinates(t *testing.T) {
	event := auditEvent()
	delete(event["geolocation"].(map[string]any), "lon")

	out, err := AuditOpenSearch{}.Transform(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, out.Has("location"), "geo_point must be omitted without both coordinates")
	assert.Equal(t, "Munich", out["location_city"])
}

func TestAuditOpenSearchEmptyEvent(t *testing.T) {
	out, err := AuditOpenSearch{}.Transform(context.Background(), envelope.Event{})
	require.NoError(t, err)
	assert.Nil(t, out["event_type"])
	assert.Equal(t, map[string]any{}, out["extra"])
}

func TestAuditLoki(t *testing.T) {
	out, err := AuditLoki{}.Transform(context.Background(), auditEvent())
	require.NoError(t, err)

	streams := out.Slice("streams")
	require.Len(t, streams, 1)
	stream := streams[0].(map[string]any)

	labels := stream["stream"].(map[string]any)
	assert.Equal(t, "auditflow", labels["job"])
	assert.Equal(t, "netlicensing/core", labels["service_name"])
	assert.Equal(t, "SUCCESS", labels["action_status"])

	values := stream["values"].([]any)
	require.Len(t, values, 1)
	value := values[0].([]any)
	require.Len(t, value, 3)
	assert.Equal(t, "1751623200000000000", value[0])
	assert.Equal(t, "User logged in successfully", value[1])

	metadata := value[2].(map[string]any)
	assert.Equal(t, "INFO", metadata["level"])
	assert.Equal(t, "48.1351", metadata["latitude"])
	assert.Equal(t, "DE", metadata["country_code"])
}

func TestAuditLokiDefaults(t *testing.T) {
	out, err := AuditLoki{}.Transform(context.Background(), envelope.Event{})
	require.NoError(t, err)

	stream := out.Slice("streams")[0].(map[string]any)
	labels := stream["stream"].(map[string]any)
	assert.Equal(t, "unknown", labels["service_name"])
	assert.Equal(t, "unknown_action", labels["action_name"])

	value := stream["values"].([]any)[0].([]any)
	assert.Equal(t, "0", value[0])
	assert.Equal(t, "N/A", value[1])
	metadata := value[2].(map[string]any)
	assert.Equal(t, "UNKNOWN", metadata["level"])
	assert.Equal(t, "N/A", metadata["latitude"])
}

func TestLogLevelMapping(t *testing.T) {
	assert.Equal(t, "INFO", logLevel("SUCCESS"))
	assert.Equal(t, "INFO", logLevel("success"))
	assert.Equal(t, "ERROR", logLevel("FAILURE"))
	assert.Equal(t, "WARN", logLevel("PENDING"))
	assert.Equal(t, "UNKNOWN", logLevel("WEIRD"))
}

func TestUserOrder(t *testing.T) {
	event := envelope.Event{
		"user_data": map[string]any{
			"first_name": "John",
			"last_name":  "Doe",
			"details":    map[string]any{"age": 30.0, "city": "New York"},
		},
		"order_info": map[string]any{"order_id": "12345", "amount": 100.50},
	}

	out, err := UserOrder{}.Transform(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", out["full_name"])
	assert.Equal(t, 30.0, out["age_of_user"])
	assert.Equal(t, "New York", out["user_location"])
	assert.Equal(t, "12345", out["transaction_id"])
}

func TestUserOrderPartial(t *testing.T) {
	out, err := UserOrder{}.Transform(context.Background(), envelope.Event{
		"user_data": map[string]any{"first_name": "John"},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRegister(t *testing.T) {
	r := plugin.NewRegistry[plugin.Transformer]("transformer", "transformers", "", plugin.LoadLuaTransformer)
	Register(r)

	for _, id := range []string{"audit_opensearch", "audit_loki", "user"} {
		_, err := r.Resolve(id)
		assert.NoError(t, err, id)
	}
}
