package nyuzi

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

// RelocationModel selects how addresses are materialized.
type RelocationModel byte

const (
	// RelocationModelStatic materializes absolute addresses.
	RelocationModelStatic RelocationModel = iota
	// RelocationModelPIC materializes addresses relative to the program counter and uses relative jump tables.
	RelocationModelPIC
)

// String implements fmt.Stringer.
func (m RelocationModel) String() string {
	if m == RelocationModelPIC {
		return "pic"
	}
	return "static"
}

// TargetConfig controls the subtarget and logging of the components a Target creates, with the default
// implementation as NewTargetConfig.
type TargetConfig struct {
	cpu        string
	features   string
	logger     logrus.FieldLogger
	relocModel RelocationModel
}

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &TargetConfig{
	cpu:        subtarget.GenericCPU,
	logger:     discardLogger(),
	relocModel: RelocationModelStatic,
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// clone ensures all fields are copied even if nil.
func (c *TargetConfig) clone() *TargetConfig {
	return &TargetConfig{
		cpu:        c.cpu,
		features:   c.features,
		logger:     c.logger,
		relocModel: c.relocModel,
	}
}

// NewTargetConfig returns the configuration of the generic CPU with no feature overrides.
func NewTargetConfig() *TargetConfig {
	return defaultConfig.clone()
}

// WithCPU returns a copy of the config with the given processor name, such as "v4" or "v60". An empty name selects
// the generic processor.
func (c *TargetConfig) WithCPU(cpu string) *TargetConfig {
	ret := c.clone()
	ret.cpu = cpu
	return ret
}

// WithFeatures returns a copy of the config with the given feature string, such as "+hvx,-memops". Unknown
// features are ignored when the subtarget is created.
func (c *TargetConfig) WithFeatures(features string) *TargetConfig {
	ret := c.clone()
	ret.features = features
	return ret
}

// WithLogger returns a copy of the config which logs to logger. Defaults to discarding if nil.
func (c *TargetConfig) WithLogger(logger logrus.FieldLogger) *TargetConfig {
	if logger == nil {
		logger = defaultConfig.logger
	}
	ret := c.clone()
	ret.logger = logger
	return ret
}

// WithRelocationModel returns a copy of the config with the given relocation model.
func (c *TargetConfig) WithRelocationModel(m RelocationModel) *TargetConfig {
	ret := c.clone()
	ret.relocModel = m
	return ret
}

// CPU returns the configured processor name.
func (c *TargetConfig) CPU() string { return c.cpu }

// Features returns the configured feature string.
func (c *TargetConfig) Features() string { return c.features }

// Logger returns the configured logger.
func (c *TargetConfig) Logger() logrus.FieldLogger { return c.logger }

// RelocationModel returns the configured relocation model.
func (c *TargetConfig) RelocationModel() RelocationModel { return c.relocModel }

// Subtarget creates the subtarget described by this config. The PIC relocation model enables the "pic" feature.
func (c *TargetConfig) Subtarget() (*subtarget.Subtarget, error) {
	features := c.features
	if c.relocModel == RelocationModelPIC {
		if features != "" {
			features += ","
		}
		features += "+pic"
	}
	return subtarget.New(c.cpu, features)
}
