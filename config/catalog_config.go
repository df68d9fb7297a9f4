package config

type catalogConfig struct {
	// the full name of the catalog
	Name string `yaml:"name"`
	// the name of the organization hosting the catalog
	Organization string `yaml:"organization"`
	// the base URL at which the catalog is accessed
	URL string `yaml:"url"`
	// the name of the provider implementing the catalog (e.g. "data-fair")
	Provider string `yaml:"provider"`
	// an API key passed in the x-apiKey header on every catalog request
	// (optional -- usually supplied via an environment variable)
	APIKey string `yaml:"apiKey,omitempty"`
}
