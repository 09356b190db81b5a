package timeline

import (
	"sort"
	"strings"
)

const (
	rulesetOutcomeAllow  = "allow"
	rulesetOutcomeReview = "review"
	rulesetOutcomeBlock  = "block"
)

var ruleLabels = map[string]string{
	"address_mismatch":         "Billing and shipping address mismatch",
	"avs_verification":         "AVS verification",
	"cvc_verification":         "CVC verification",
	"international_ip_address": "International IP address",
	"ip_address_mismatch":      "IP address and billing country mismatch",
	"order_items_threshold":    "Order item threshold",
	"purchase_price_threshold": "Purchase price threshold",
}

func ruleLabel(rule string) string {
	if label, ok := ruleLabels[rule]; ok {
		return label
	}
	label := strings.ReplaceAll(rule, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func outcomeLabel(outcome string) string {
	switch outcome {
	case rulesetOutcomeReview:
		return "Placed in review"
	case rulesetOutcomeBlock:
		return "Blocked"
	default:
		return outcome
	}
}

// rulesetLines narrates every rule that did not simply allow the payment,
// ordered by rule name so repeated renders match.
func rulesetLines(results map[string]string) []string {
	rules := make([]string, 0, len(results))
	for rule, outcome := range results {
		if outcome == "" || outcome == rulesetOutcomeAllow {
			continue
		}
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	lines := make([]string, 0, len(rules))
	for _, rule := range rules {
		lines = append(lines, ruleLabel(rule)+": "+outcomeLabel(results[rule]))
	}
	return lines
}
