package session

import "context"

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Theme returns the theme stored under key (storage.KeySiteTheme or
// storage.KeyAdminTheme), light by default.
func Theme(ctx context.Context, key string) string {
	t, err := FromContext(ctx).GetString(ctx, key)
	if err != nil || t != ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ToggleTheme flips the theme stored under key and returns the new value.
func ToggleTheme(ctx context.Context, key string) (string, error) {
	next := ThemeDark
	if Theme(ctx, key) == ThemeDark {
		next = ThemeLight
	}
	if err := FromContext(ctx).SetString(ctx, key, next); err != nil {
		return "", err
	}
	return next, nil
}
