package authclient

// Theme is the UI colour scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemePreference persists the theme under ThemeKey, JSON encoded.
type ThemePreference struct {
	cache *Cache[Theme]
}

// NewThemePreference returns the preference, ThemeLight until one is stored.
func NewThemePreference(storage Storage, opts ...CacheOption) *ThemePreference {
	return &ThemePreference{
		cache: NewCache[Theme](storage, ThemeKey, ThemeLight, JSONCodec[Theme]{}, opts...),
	}
}

// Get returns the current theme.
func (p *ThemePreference) Get() Theme {
	t := p.cache.Get()
	if t != ThemeDark {
		return ThemeLight
	}
	return t
}

// Set stores theme. Unknown values fall back to ThemeLight.
func (p *ThemePreference) Set(theme Theme) {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	p.cache.Set(theme)
}

// Toggle flips between light and dark and returns the new theme.
func (p *ThemePreference) Toggle() Theme {
	return p.cache.Update(func(prev Theme) Theme {
		if prev == ThemeDark {
			return ThemeLight
		}
		return ThemeDark
	})
}

// OnChange registers fn for theme changes.
func (p *ThemePreference) OnChange(fn func(prev, next Theme)) (unsubscribe func()) {
	return p.cache.OnChange(fn)
}
