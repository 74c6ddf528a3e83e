package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultMaskIP = "0.0.0.0"

// IPProtectionConfig holds parsed IP protection settings from environment variables
type IPProtectionConfig struct {
	Enabled bool
	MaskIP  string // replacement IP recorded for unauthenticated callers
}

// LoadIPProtectionConfig loads IP protection settings from environment variables.
// ETICA_IPPROTECT=off disables masking
// ETICA_IPPROTECT_MASK_IP=10.0.0.0
func LoadIPProtectionConfig() *IPProtectionConfig {
	cfg := &IPProtectionConfig{
		Enabled: true,
		MaskIP:  strings.TrimSpace(os.Getenv("ETICA_IPPROTECT_MASK_IP")),
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("ETICA_IPPROTECT"))) {
	case "off", "false", "0", "no":
		cfg.Enabled = false
	}
	if cfg.MaskIP == "" {
		cfg.MaskIP = defaultMaskIP
	}
	return cfg
}

// IPProtection replaces the client IP recorded for callers without an
// admin session, so request logs cannot point back at a reporter.
// Must be applied after OptionalSession.
func IPProtection(cfg *IPProtectionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || !cfg.Enabled {
			c.Next()
			return
		}

		if GetSessionUser(c) == nil {
			c.Set("protected_ip", cfg.MaskIP)
		}

		c.Next()
	}
}

// GetClientIP returns the protected IP if set, otherwise falls back to c.ClientIP()
func GetClientIP(c *gin.Context) string {
	if ip, exists := c.Get("protected_ip"); exists {
		if s, ok := ip.(string); ok && s != "" {
			return s
		}
	}
	return c.ClientIP()
}
