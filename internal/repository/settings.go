package repository

// Settings is the persisted user-facing configuration.
type Settings struct {
	InjectEnabled *bool `json:"injectEnabled" validate:"required"`
}

// DefaultSettings is what a first run writes to disk.
func DefaultSettings() Settings {
	disabled := false
	return Settings{InjectEnabled: &disabled}
}

// ApplyDefaults sets fallback values after decode.
func (s *Settings) ApplyDefaults() {
	if s.InjectEnabled == nil {
		v := false
		s.InjectEnabled = &v
	}
}

// Inject returns the inject flag, treating a missing value as disabled.
func (s Settings) Inject() bool {
	return s.InjectEnabled != nil && *s.InjectEnabled
}

// Equal compares the effective values of two settings documents.
func (s Settings) Equal(other Settings) bool {
	return s.Inject() == other.Inject()
}
