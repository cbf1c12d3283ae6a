package netlicensing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
)

// Options steers the provisioning workflow for one event.
type Options struct {
	// DefaultProductNumber applies to items whose extra data names no
	// productNumber.
	DefaultProductNumber string
	// DefaultLicenseTemplate applies to items whose extra data names no
	// licenseTemplateNumber.
	DefaultLicenseTemplate string
	// QuantityToLicensee creates one licensee per purchased unit instead of
	// attaching all licenses to a single licensee.
	QuantityToLicensee bool
	// MarkForTransfer flags created licensees for later transfer.
	MarkForTransfer bool
	// SaveTransactionData stores checkout details on the licensee record.
	SaveTransactionData bool
}

// Provisioner runs the checkout provisioning workflow against NetLicensing.
type Provisioner struct {
	client *Client
}

func NewProvisioner(client *Client) *Provisioner {
	return &Provisioner{client: client}
}

type itemOutcome struct {
	licensees []string
	licenses  []string
	warnings  []string
}

// Provision processes one checkout transaction event. Non-checkout events
// and transactions that are not COMPLETED are skipped without error. Items
// are processed independently; a failing item is recorded and does not stop
// the rest. Only when every item fails is the whole operation an error.
func (p *Provisioner) Provision(ctx context.Context, event envelope.Event, opts Options) (plugin.Result, error) {
	eventType := event.String("eventType", "")
	if !strings.HasPrefix(eventType, "checkout.transaction") {
		slog.WarnContext(ctx, "skipping non-checkout event", "event_type", eventType)
		return plugin.Result{
			"processed":   false,
			"reason":      fmt.Sprintf("Event type '%s' is not a checkout transaction event", eventType),
			"destination": "netlicensing",
		}, nil
	}

	extra := event.Section("extra")
	transaction := extra.Section("transaction")
	if len(transaction) == 0 {
		return nil, fmt.Errorf("missing 'transaction' in event extra data")
	}

	if status := transaction.String("status", ""); status != "COMPLETED" {
		slog.InfoContext(ctx, "skipping transaction", "status", status)
		return plugin.Result{
			"processed":   false,
			"reason":      fmt.Sprintf("Transaction status '%s' is not COMPLETED", status),
			"destination": "netlicensing",
		}, nil
	}

	purchaseOrder := transaction.Section("purchaseOrder")
	customer := purchaseOrder.Section("customer")
	billingInfo := transaction.Section("billingInfo")
	items := purchaseOrder.Slice("items")
	if len(items) == 0 {
		return nil, fmt.Errorf("purchase order has no items")
	}

	var licensees, licenses, warnings []string
	var itemErrors []map[string]any

	for _, raw := range items {
		itemMap, ok := raw.(map[string]any)
		if !ok {
			itemErrors = append(itemErrors, map[string]any{
				"error": fmt.Sprintf("item is not an object: %T", raw),
			})
			continue
		}
		item := envelope.Event(itemMap)

		outcome, err := p.processItem(ctx, item, customer, billingInfo, transaction, purchaseOrder, opts)
		if err != nil {
			slog.ErrorContext(ctx, "failed to process item",
				"sku", item.String("sku", "unknown"), "error", err)
			itemErrors = append(itemErrors, map[string]any{
				"item_sku":  item.String("sku", ""),
				"item_name": item.String("name", ""),
				"error":     err.Error(),
			})
			continue
		}
		licensees = append(licensees, outcome.licensees...)
		licenses = append(licenses, outcome.licenses...)
		warnings = append(warnings, outcome.warnings...)
	}

	if len(itemErrors) > 0 && len(licensees) == 0 && len(licenses) == 0 {
		return nil, fmt.Errorf("failed to process all items: %v", itemErrors)
	}

	uniqueLicensees := dedupe(licensees)
	result := plugin.Result{
		"processed":         true,
		"destination":       "netlicensing",
		"transaction_id":    transaction.String("id", ""),
		"licensees_created": len(uniqueLicensees),
		"licensee_numbers":  uniqueLicensees,
		"licenses_created":  len(licenses),
		"license_numbers":   licenses,
	}
	if len(itemErrors) > 0 {
		result["errors"] = itemErrors
	}
	if len(warnings) > 0 {
		result["warnings"] = warnings
	}
	return result, nil
}

func (p *Provisioner) processItem(ctx context.Context, item, customer, billingInfo, transaction, purchaseOrder envelope.Event, opts Options) (itemOutcome, error) {
	var outcome itemOutcome
	itemExtra := item.Section("extra")

	productNumber := itemExtra.String("productNumber", opts.DefaultProductNumber)
	if productNumber == "" {
		return outcome, fmt.Errorf("no product number for item: %s", item.String("name", ""))
	}
	templateNumber := itemExtra.String("licenseTemplateNumber", opts.DefaultLicenseTemplate)
	if templateNumber == "" {
		return outcome, fmt.Errorf("no license template number for item: %s", item.String("name", ""))
	}

	quantity := item.Int("quantity", 1)
	if quantity < 1 {
		quantity = 1
	}

	var licenseeNumber string

	// Reuse an existing licensee when the item names one, unless every unit
	// gets its own licensee.
	if existing := itemExtra.String("licenseeNumber", ""); existing != "" && !opts.QuantityToLicensee {
		licensee, err := p.client.GetLicensee(ctx, existing)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "could not retrieve licensee", "licensee", existing, "error", err)
		case licensee.NestedGet("product", "number") != productNumber:
			warning := fmt.Sprintf("licensee %s belongs to a different product, creating new licensee", existing)
			slog.WarnContext(ctx, "licensee product mismatch", "licensee", existing, "product", productNumber)
			outcome.warnings = append(outcome.warnings, warning)
		default:
			licenseeNumber = existing
		}
	}

	for i := 0; i < quantity; i++ {
		if licenseeNumber == "" || opts.QuantityToLicensee {
			licensee, err := p.createLicensee(ctx, productNumber, customer, billingInfo, transaction, purchaseOrder, opts)
			if err != nil {
				return outcome, err
			}
			licenseeNumber = licensee.Get("number")
			outcome.licensees = append(outcome.licensees, licenseeNumber)
		}

		license, err := p.createLicense(ctx, licenseeNumber, templateNumber, item)
		if err != nil {
			return outcome, err
		}
		outcome.licenses = append(outcome.licenses, license.Get("number"))

		if opts.QuantityToLicensee {
			// Force a fresh licensee for the next unit.
			licenseeNumber = ""
		}
	}

	return outcome, nil
}

func (p *Provisioner) createLicensee(ctx context.Context, productNumber string, customer, billingInfo, transaction, purchaseOrder envelope.Event, opts Options) (Entity, error) {
	firstName := customer.String("firstName", billingInfo.String("firstName", ""))
	lastName := customer.String("lastName", billingInfo.String("lastName", ""))
	email := customer.String("email", billingInfo.String("email", ""))

	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		name = email
	}
	if name == "" {
		name = "Unknown Customer"
	}

	props := map[string]string{
		"active": "true",
		"name":   name,
	}
	if opts.MarkForTransfer {
		props["markedForTransfer"] = "true"
	}
	if email != "" {
		props["email"] = email
	}
	if id := customer.String("id", ""); id != "" {
		props["customerId"] = id
	}
	if phone := customer.String("phone", ""); phone != "" {
		props["phone"] = phone
	}

	if opts.SaveTransactionData {
		checkout := map[string]string{
			"transactionId":   transaction.String("id", ""),
			"purchaseOrderId": purchaseOrder.String("id", ""),
			"paymentMethod":   transaction.String("paymentMethod", ""),
			"currency":        purchaseOrder.String("currency", ""),
			"billingCountry":  billingInfo.String("country", ""),
			"billingCity":     billingInfo.String("city", ""),
		}
		raw, err := json.Marshal(checkout)
		if err != nil {
			return Entity{}, fmt.Errorf("marshal checkout data: %w", err)
		}
		props["checkoutData"] = string(raw)
	}

	return p.client.CreateLicensee(ctx, productNumber, props)
}

func (p *Provisioner) createLicense(ctx context.Context, licenseeNumber, templateNumber string, item envelope.Event) (Entity, error) {
	props := map[string]string{
		"active": "true",
	}

	// Time-volume licenses start immediately.
	template, err := p.client.GetLicenseTemplate(ctx, templateNumber)
	if err != nil {
		slog.WarnContext(ctx, "could not retrieve license template", "template", templateNumber, "error", err)
	} else if template.Get("licenseType") == "TIMEVOLUME" {
		props["startDate"] = "now"
	}

	itemExtra := item.Section("extra")
	for _, key := range []string{"startDate", "endDate", "maxSessions", "maxCheckouts"} {
		if itemExtra.Has(key) {
			props[key] = fmt.Sprintf("%v", itemExtra[key])
		}
	}

	return p.client.CreateLicense(ctx, licenseeNumber, templateNumber, props)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
