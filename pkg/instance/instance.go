// Package instance names the running process in logs.
package instance

import (
	"os"
	"strings"
)

const envInstanceID = "STOREFRONT_INSTANCE_ID"

// ID returns STOREFRONT_INSTANCE_ID, then the host name, then kind + "-0".
func ID(kind string) string {
	if id := strings.TrimSpace(os.Getenv(envInstanceID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return kind + "-0"
}
