package credentials

import "github.com/sethvargo/go-password/password"

// GenerateAdminPassword returns a random password suitable for the seeded
// admin account. 16 characters with digits, no symbols so it can be pasted
// anywhere without quoting trouble.
func GenerateAdminPassword() (string, error) {
	return password.Generate(16, 4, 0, false, false)
}
