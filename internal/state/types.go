package state

// Persisted key names. Every value is a JSON document.
const (
	CurrentUserKey = "current_user"

	settingsKeyPrefix = "settings_"
	alertsKeyPrefix   = "alerts_"
)

// SettingsKey returns the key holding the settings of the given user.
func SettingsKey(userID string) string {
	return settingsKeyPrefix + userID
}

// AlertsKey returns the key holding the ordered alert collection of the given user.
func AlertsKey(userID string) string {
	return alertsKeyPrefix + userID
}

// Permission is the desktop notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// String returns the permission name.
func (p Permission) String() string {
	if p == "" {
		return string(PermissionDefault)
	}
	return string(p)
}
