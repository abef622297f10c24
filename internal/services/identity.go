package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"artistry-hub/internal/status"
	"artistry-hub/models"
)

// The (user, event) identity rides the callback on three channels,
// because gateways are not reliable about which one survives the
// round trip: the purchase order id, the echoed merchant metadata, and
// raw query params on the return URL. Resolution walks them in that
// order and the first source yielding BOTH ids wins. When none does,
// processing fails closed instead of guessing.

const orderIDPrefix = "ah"

// BuildOrderID encodes the identity into the purchase order id.
// Record ids never contain dashes, so the format is unambiguous.
func BuildOrderID(userID, eventID, nonce string) string {
	return fmt.Sprintf("%s-%s-%s-%s", orderIDPrefix, userID, eventID, nonce)
}

func parseOrderID(orderID string) (userID, eventID string, ok bool) {
	parts := strings.Split(orderID, "-")
	if len(parts) != 4 || parts[0] != orderIDPrefix {
		return "", "", false
	}
	return parts[1], parts[2], parts[1] != "" && parts[2] != ""
}

type merchantExtra struct {
	UserID  string `json:"user_id"`
	EventID string `json:"event_id"`
}

// BuildMerchantExtra encodes the identity for the gateway metadata field.
func BuildMerchantExtra(userID, eventID string) string {
	raw, _ := json.Marshal(merchantExtra{UserID: userID, EventID: eventID})
	return string(raw)
}

func parseMerchantExtra(raw string) (userID, eventID string, ok bool) {
	var extra merchantExtra
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		return "", "", false
	}
	return extra.UserID, extra.EventID, extra.UserID != "" && extra.EventID != ""
}

// ResolveIdentity extracts (userID, eventID) from callback parameters
// via the ordered fallback chain.
func ResolveIdentity(p *models.CallbackParams) (userID, eventID string, err error) {
	if p.PurchaseOrderID != "" {
		if uid, eid, ok := parseOrderID(p.PurchaseOrderID); ok {
			return uid, eid, nil
		}
	}
	if p.MerchantExtra != "" {
		if uid, eid, ok := parseMerchantExtra(p.MerchantExtra); ok {
			return uid, eid, nil
		}
	}
	if p.UID != "" && p.EID != "" {
		return p.UID, p.EID, nil
	}
	return "", "", status.ErrUnresolvableReference
}
