package models

import (
	"fmt"
	"strings"
)

// LinkPolicy decides which operations require a linked external handle.
type LinkPolicy string

const (
	LinkPolicyNone     LinkPolicy = "none"
	LinkPolicyPurchase LinkPolicy = "purchase"
	LinkPolicyClaim    LinkPolicy = "claim"
	LinkPolicyBoth     LinkPolicy = "both"
)

func ParseLinkPolicy(s string) (LinkPolicy, error) {
	switch p := LinkPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case LinkPolicyNone, LinkPolicyPurchase, LinkPolicyClaim, LinkPolicyBoth:
		return p, nil
	case "":
		return LinkPolicyBoth, nil
	default:
		return "", fmt.Errorf("unknown link policy %q", s)
	}
}

func (p LinkPolicy) RequiredForPurchase() bool {
	return p == LinkPolicyPurchase || p == LinkPolicyBoth
}

func (p LinkPolicy) RequiredForClaim() bool {
	return p == LinkPolicyClaim || p == LinkPolicyBoth
}
