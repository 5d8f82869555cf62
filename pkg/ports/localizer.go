package ports

// Localizer resolves resource keys for a single culture.
type Localizer interface {
	// Get returns the string for key, or domain.ErrMissingResourceKey.
	Get(key string) (string, error)

	// Tag returns the BCP 47 tag of the culture.
	Tag() string
}

// LocalizerResolver selects the Localizer of a turn from its locale tag.
// An empty tag selects the default culture.
type LocalizerResolver interface {
	Resolve(tag string) Localizer
}
