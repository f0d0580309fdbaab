package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URL descriptors
	urlCredentialsPattern = regexp.MustCompile(`://([^:/@\s]+):\S+@`)

	// user/pass@host in Oracle easy-connect descriptors
	oracleCredentialsPattern = regexp.MustCompile(`^([^/@\s:]+)/[^@\s]+@`)

	// user:pass@tcp(host) in MySQL DSNs
	mysqlCredentialsPattern = regexp.MustCompile(`^([^:@\s/]+):[^@\s]*@(tcp|unix)\(`)
)

// SanitizeConnectionString removes passwords from a connection descriptor.
// The user name and host are kept.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = urlCredentialsPattern.ReplaceAllString(sanitized, "://${1}:"+RedactedText+"@")
	sanitized = oracleCredentialsPattern.ReplaceAllString(sanitized, "${1}/"+RedactedText+"@")
	sanitized = mysqlCredentialsPattern.ReplaceAllString(sanitized, "${1}:"+RedactedText+"@${2}(")
	return sanitized
}

// SanitizeError sanitizes error messages that might contain a descriptor.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = urlCredentialsPattern.ReplaceAllString(sanitized, "://${1}:"+RedactedText+"@")
	return sanitized
}

// SanitizeQuery truncates a SQL statement for logging.
func SanitizeQuery(query string) string {
	if len(query) > MaxQueryLogLength {
		query = query[:MaxQueryLogLength] + "..."
	}
	return passwordPattern.ReplaceAllString(query, "${1}="+RedactedText)
}
