package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var liberalOrderNumberPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
var strictOrderNumberPattern = regexp.MustCompile(`^[A-Z][0-9]{3}$`)

// Validator is a pure, stateless row-validation function wrapped in a
// struct so the business timezone and the (unused by default) strict
// order-number policy toggle are explicit configuration rather than
// hidden constants.
type Validator struct {
	BusinessTimezone        *time.Location
	StrictOrderNumberFormat bool
}

func NewValidator(businessTimezone *time.Location, strictOrderNumberFormat bool) *Validator {
	if businessTimezone == nil {
		businessTimezone = time.UTC
	}
	return &Validator{
		BusinessTimezone:        businessTimezone,
		StrictOrderNumberFormat: strictOrderNumberFormat,
	}
}

// ValidateRow applies the business rules in fixed order so that the
// first failure determines the reported code. seen is mutated on
// success to catch intra-batch duplicates; it must be initialised from
// the snapshot's existing order numbers before the first call.
func (v *Validator) ValidateRow(row Row, snap *CatalogSnapshot, seen map[string]struct{}) (ValidatedOrder, *RowError) {
	fail := func(code RowErrorCode, message string) (ValidatedOrder, *RowError) {
		return ValidatedOrder{}, &RowError{LineNumber: row.LineNumber, Code: code, Message: message}
	}

	// 1. orderNumber non-empty and alphanumeric with - or _ allowed.
	orderNumber := strings.TrimSpace(row.OrderNumber)
	if orderNumber == "" {
		return fail(ErrCodeOrderNumberInvalid, "order number is required")
	}
	pattern := liberalOrderNumberPattern
	if v.StrictOrderNumberFormat {
		pattern = strictOrderNumberPattern
	}
	if !pattern.MatchString(orderNumber) {
		return fail(ErrCodeOrderNumberInvalid, fmt.Sprintf("order number must be alphanumeric: %s", orderNumber))
	}

	// 2. orderNumber not previously seen (DB snapshot + intra-batch).
	if _, exists := seen[orderNumber]; exists {
		return fail(ErrCodeOrderDuplicate, fmt.Sprintf("order number already exists: %s", orderNumber))
	}

	// 3. clientId non-empty and in activeClients.
	clientID := strings.TrimSpace(row.ClientID)
	if clientID == "" {
		return fail(ErrCodeClientNotFound, "client id is required")
	}
	if !snap.IsActiveClient(clientID) {
		return fail(ErrCodeClientNotFound, fmt.Sprintf("client not found or inactive: %s", clientID))
	}

	// 4. status parses to PENDING, CONFIRMED, or DELIVERED (case-insensitive).
	status, err := ParseOrderStatusFromString(row.Status)
	if err != nil {
		return fail(ErrCodeStatusInvalid, fmt.Sprintf("invalid status: %s", row.Status))
	}

	// 5. zoneId non-empty and a key of zones.
	zoneID := strings.TrimSpace(row.ZoneID)
	if zoneID == "" {
		return fail(ErrCodeZoneNotFound, "zone id is required")
	}
	refrigerated, zoneExists := snap.ZoneRefrigerationCapable(zoneID)
	if !zoneExists {
		return fail(ErrCodeZoneNotFound, fmt.Sprintf("zone not found: %s", zoneID))
	}

	// 6. if requiresRefrigeration, the zone must support cold chain.
	if row.RequiresRefrigeration && !refrigerated {
		return fail(ErrCodeColdChainUnsupported, fmt.Sprintf("zone %s does not support cold chain", zoneID))
	}

	// 7. deliveryDate parses as YYYY-MM-DD.
	rawDate := strings.TrimSpace(row.DeliveryDate)
	if rawDate == "" {
		return fail(ErrCodeDeliveryDatePast, "delivery date is required")
	}
	deliveryDate, err := time.ParseInLocation(dateLayout, rawDate, v.BusinessTimezone)
	if err != nil {
		return fail(ErrCodeDeliveryDatePast, fmt.Sprintf("invalid delivery date format: %s, expected YYYY-MM-DD", rawDate))
	}

	// 8. deliveryDate >= today(business timezone).
	today := time.Now().In(v.BusinessTimezone)
	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, v.BusinessTimezone)
	if deliveryDate.Before(todayDate) {
		return fail(ErrCodeDeliveryDatePast, fmt.Sprintf("delivery date cannot be in the past: %s", rawDate))
	}

	seen[orderNumber] = struct{}{}

	return ValidatedOrder{
		OrderNumber:           orderNumber,
		ClientID:              clientID,
		DeliveryDate:          deliveryDate,
		Status:                status,
		ZoneID:                zoneID,
		RequiresRefrigeration: row.RequiresRefrigeration,
	}, nil
}
