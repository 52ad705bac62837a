package config

import "os"

// NotifyConfig holds SMS settings.  Notifications are sent only when
// Enabled is set and all three Twilio values are present.
type NotifyConfig struct {
	Enabled        bool
	CustomerSMS    bool
	AccountSID     string
	AuthToken      string
	FromNumber     string
	OperatorNumber string
}

// LoadNotifyConfig reads SMS_ENABLED (alias SEND_CUSTOMER_SMS), the
// TWILIO_* credentials and OPERATOR_NOTIFY_NUMBER (alias
// BARBER_NOTIFY_NUMBER).  CUSTOMER_SMS_ENABLED=false keeps operator
// messages but never texts customers.
func LoadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		Enabled:        envBool("SMS_ENABLED", envBool("SEND_CUSTOMER_SMS", false)),
		CustomerSMS:    envBool("CUSTOMER_SMS_ENABLED", true),
		AccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		FromNumber:     os.Getenv("TWILIO_FROM_NUMBER"),
		OperatorNumber: firstEnv("OPERATOR_NOTIFY_NUMBER", "BARBER_NOTIFY_NUMBER"),
	}
}

// Active reports whether SMS can actually be sent.
func (c NotifyConfig) Active() bool {
	return c.Enabled && c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}
