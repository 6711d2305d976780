package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMESCORE_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = []string{apiKeysEnv}
		}
	}
	// Env values arrive comma-joined or split without trimming.
	c.Server.APIKeys = splitKeys(strings.Join(c.Server.APIKeys, ","))
}

func splitKeys(s string) []string {
	var keys []string
	for _, key := range strings.Split(s, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	// Debug logging implies console telemetry unless configured otherwise.
	if c.App.LogLevel == "debug" && !c.Observability.Console.Enabled {
		c.Observability.Console.Enabled = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

var loggedEnvVars = []string{
	"RESUMESCORE_APP_LOGLEVEL",
	"RESUMESCORE_ENGINE_TAXONOMYFILE",
	"RESUMESCORE_ENGINE_PARALLEL",
	"RESUMESCORE_SERVER_HOST",
	"RESUMESCORE_SERVER_PORT",
	"RESUMESCORE_SERVER_APIKEYS",
	"RESUMESCORE_QUEUE_URL",
	"RESUMESCORE_VAULT_ENABLED",
	"RESUMESCORE_VAULT_TOKEN",
}

// isSensitiveEnv reports whether an environment variable holds a secret.
func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "key") || strings.Contains(lower, "token") || strings.HasSuffix(lower, "_url")
}

// maskSecret hides all but the edges of a secret value.
func maskSecret(value string) string {
	if len(value) > 8 {
		return value[:4] + "****" + value[len(value)-4:]
	}
	if value != "" {
		return "****"
	}
	return ""
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range loggedEnvVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveEnv(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	if c.Engine.TaxonomyFile != "" {
		log.Printf("[CONFIG] Taxonomy: %s (watch: %t)", c.Engine.TaxonomyFile, c.Engine.WatchTaxonomy)
	} else {
		log.Println("[CONFIG] Taxonomy: embedded default")
	}
	log.Printf("[CONFIG] Parallel Assessors: %t", c.Engine.Parallel)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Server API Keys: %d configured", len(c.Server.APIKeys))
	log.Printf("[CONFIG] TLS Enabled: %t", c.Server.TLS.Enabled())
	log.Printf("[CONFIG] Rate Limit: %t (%d/min)", c.RateLimit.Enabled, c.RateLimit.RequestsPerMin)
	log.Printf("[CONFIG] Queue Workers: %d", c.Queue.Workers)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	if c.Vault.Token != "" {
		log.Println("[CONFIG] Vault Token: ***CONFIGURED***")
	}
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] =====================================")
}
