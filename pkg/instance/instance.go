package instance

import (
	"os"
	"strings"
)

// EnvInstanceID overrides the detected instance identifier.
const EnvInstanceID = "HARVESTLINK_INSTANCE_ID"

// ID identifies this process in logs. It prefers HARVESTLINK_INSTANCE_ID, then
// the platform DYNO name, then the hostname, and finally service+"-0".
func ID(service string) string {
	for _, key := range []string{EnvInstanceID, "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return service + "-0"
}
