package config

import (
	"fmt"
	"strings"
)

// Placeholder values that show up when operators copy the sample config
// without filling it in. Treated the same as an absent credential.
var placeholders = []string{
	"your-access-key",
	"your-secret-key",
	"your-bucket",
	"your-endpoint",
	"changeme",
	"example",
	"xxx",
}

// ValidateStore checks the store connection settings and returns the reasons
// the coordinator must stay disabled, or nil when a client may be built.
// Credentials that are absent, placeholder text, or implausibly short all
// fail: a half-configured client would otherwise surface only as opaque TLS
// handshake errors deep inside the first request.
func ValidateStore(cfg StoreConfig) error {
	if cfg.Backend == "fs" {
		if cfg.FSPath == "" {
			return fmt.Errorf("store backend fs requires STORE_FS_PATH")
		}
		return nil
	}

	var missing []string
	if !plausible(cfg.Endpoint, 4) {
		missing = append(missing, "STORE_ENDPOINT")
	}
	if !plausible(cfg.Bucket, 3) {
		missing = append(missing, "STORE_BUCKET_NAME")
	}
	if !plausible(cfg.AccessKeyID, 8) {
		missing = append(missing, "STORE_ACCESS_KEY_ID")
	}
	if !plausible(cfg.SecretAccessKey, 16) {
		missing = append(missing, "STORE_SECRET_ACCESS_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("object store configuration incomplete: %s", strings.Join(missing, ", "))
	}
	return nil
}

func plausible(value string, minLen int) bool {
	value = strings.TrimSpace(value)
	if len(value) < minLen {
		return false
	}
	lower := strings.ToLower(value)
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}
