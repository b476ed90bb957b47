package internal

type Configuration interface {
	UsesMetrics() bool
	UsesTracing() bool
	UsesMaxProcs() bool
}

func NewConfiguration(options ...ConfigurationOption) Configuration {
	c := &configuration{}
	for _, option := range options {
		option(c)
	}
	return c
}

type ConfigurationOption func(c *configuration)

func WithMetrics() ConfigurationOption {
	return func(c *configuration) {
		c.usesMetrics = true
	}
}

func WithTracing() ConfigurationOption {
	return func(c *configuration) {
		c.usesTracing = true
	}
}

func WithMaxProcs() ConfigurationOption {
	return func(c *configuration) {
		c.usesMaxProcs = true
	}
}

type configuration struct {
	usesMetrics  bool
	usesTracing  bool
	usesMaxProcs bool
}

func (c *configuration) UsesMetrics() bool {
	return c.usesMetrics
}

func (c *configuration) UsesTracing() bool {
	return c.usesTracing
}

func (c *configuration) UsesMaxProcs() bool {
	return c.usesMaxProcs
}
