package config

import "strings"

// envReplacer maps a dotted mapstructure key ("budget.limit") to the
// corresponding NOTIFYD_ environment variable suffix ("BUDGET_LIMIT").
func envReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}
