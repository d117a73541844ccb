package mailer

// SenderConfig identifies the mailbox a campaign is sent from. The merge
// engine receives it as an opaque read-only value; the credential is never
// persisted by this package and must never be logged.
type SenderConfig struct {
	ID       string
	Name     string
	Email    string
	Password string
	Host     string
	Port     int
}

// SSL reports whether the connection uses implicit TLS. Port 465 is the
// de-facto SMTPS port; other ports negotiate STARTTLS when offered.
func (c SenderConfig) SSL() bool {
	return c.Port == 465
}

// Complete reports whether the config carries everything required to open
// an authenticated connection.
func (c SenderConfig) Complete() bool {
	return c.Email != "" && c.Password != "" && c.Host != "" && c.Port != 0
}
