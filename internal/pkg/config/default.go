package config

import "github.com/spf13/viper"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.server.http.address", ":8080")
	v.SetDefault("app.server.http.read_timeout", 10)
	v.SetDefault("app.server.http.write_timeout", 10)
	v.SetDefault("app.csrf.ttl", 60)
	v.SetDefault("app.shutdown_timeout", 10)
	v.SetDefault("app.node_id", -1)
	v.SetDefault("hash.bcrypt_cost", 12)
	v.SetDefault("jwt.ttl_minutes", 60)

	v.SetDefault("hash.driver", "bcrypt")
	v.SetDefault("mail.driver", "log")
	v.SetDefault("messaging.driver", "memory")

	v.SetDefault("modules.passcode.store.driver", "memory")
	v.SetDefault("modules.passcode.store.prefix", "otp:")
	v.SetDefault("modules.passcode.ttl_seconds", 600)
	v.SetDefault("modules.passcode.max_attempts", 5)
	v.SetDefault("modules.passcode.sweep_interval_seconds", 300)
	v.SetDefault("modules.passcode.resend_lock_seconds", 540)
	v.SetDefault("modules.passcode.resend_hint_seconds", 60)
	v.SetDefault("modules.passcode.reset_lock_seconds", 60)
	v.SetDefault("modules.passcode.expose_code", false)

	v.SetDefault("modules.notification.enabled", true)
	v.SetDefault("modules.notification.sender", "no-reply@gootp.local")
	v.SetDefault("modules.notification.company_name", "GoOTP")
	v.SetDefault("modules.notification.support_email", "support@gootp.local")
	v.SetDefault("modules.notification.max_retries", 3)
	v.SetDefault("modules.notification.concurrency", 4)
}
