package permissions

const (
	statusCreator       = "creator"
	statusAdministrator = "administrator"
)

// IsAdminStatus reports whether a chat member status grants moderation rights.
func IsAdminStatus(status string) bool {
	return status == statusCreator || status == statusAdministrator
}

// IsStaff reports whether a member should be listed as a human moderator.
func IsStaff(status string, isBot bool) bool {
	if isBot {
		return false
	}
	return IsAdminStatus(status)
}
