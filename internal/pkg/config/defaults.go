package config

// defaults are applied before the file is read, so a minimal file (or none of
// the optional sections) still yields a runnable service.
var defaults = map[string]any{
	"app.name":              "medicore",
	"app.env":               "development",
	"app.web":               "http://localhost:3000",
	"app.maintenance":       false,
	"log.level":             "info",
	"server.address":        ":8080",
	"server.read_timeout":   10,
	"server.write_timeout":  10,
	"server.cors.origins":   "*",
	"hash.algorithm":        "bcrypt",
	"hash.bcrypt_cost":      12,
	"cipher.key_version":    1,
	"cipher.rsa_bits":       4096,
	"jwt.issuer":            "medicore",
	"jwt.audiences":         "medicore-api",
	"jwt.access_ttl":        15,
	"jwt.refresh_ttl":       7,
	"totp.issuer":           "MediCore",
	"totp.period":           30,
	"totp.skew":             1,
	"ratelimit.auth.rps":    5,
	"ratelimit.auth.burst":  10,
	"snowflake.node":        1,
	"goroutine.max":         100,
	"telemetry.enabled":     false,
	"messaging.driver":      "",
	"storage.driver":        "",
	"storage.presign_ttl":   15,
	"mail.breaker.timeout":  30,
	"mail.breaker.failures": 5,

	"messaging.nats.max_reconnects":          60,
	"messaging.nats.reconnect_wait":          2,
	"messaging.nats.retry_on_failed_connect": true,
	"telemetry.trace_sample_ratio":           1.0,
	"telemetry.metric_interval":              30,

	"modules.auth.enabled":                 true,
	"modules.auth.keypair.enabled":         false,
	"modules.auth.two_factor.pending_ttl":  5,
	"modules.auth.two_factor.setup_ttl":    10,
	"modules.auth.password_reset.ttl":      60,
	"modules.auth.password_reset.throttle": 60,
	"modules.record.enabled":               true,
	"modules.audit.enabled":                true,
	"modules.notification.enabled":         false,
	"modules.notification.consumer_names":  "",
	"modules.notification.mail_from":       "MediCore <no-reply@medicore.local>",
	"modules.notification.support_email":   "support@medicore.local",
	"modules.notification.concurrency":     4,
	"modules.record.attachments_bucket":    "medicore-attachments",
	"modules.record.decrypt_soft_fail":     false,
	"modules.audit.page_size":              20,
	"modules.audit.max_page_size":          100,
}
