package database

import "time"

type EntryType string

const (
	EntryTypeTOTP EntryType = "totp"
	EntryTypeHOTP EntryType = "hotp"
)

// Entry is one stored authenticator record. The payload secret here is the
// OTP seed, not the store's encryption secret; protecting it at rest is the
// engine's job.
type Entry struct {
	ID        string
	Issuer    string
	Username  string
	Type      EntryType
	Algorithm string
	Digits    int
	Period    int
	Counter   int64
	Secret    string
	Icon      string
	Ranking   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID      string
	Name    string
	Ranking int
}

type CustomIcon struct {
	ID   string
	Data []byte
}
