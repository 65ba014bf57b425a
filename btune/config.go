package btune

import (
	"bytes"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Blosc/btune-go/btune/params"
)

// RepeatMode controls what happens once the last hard readapt cycle
// completes, once the WAITING state has nothing left to readapt.
type RepeatMode int

const (
	RepeatAll RepeatMode = iota
	RepeatSoft
	RepeatStop
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatAll:
		return "REPEAT_ALL"
	case RepeatSoft:
		return "REPEAT_SOFT"
	case RepeatStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

func parseRepeatMode(s string) (RepeatMode, bool) {
	switch s {
	case "REPEAT_ALL", "repeat_all":
		return RepeatAll, true
	case "REPEAT_SOFT", "repeat_soft":
		return RepeatSoft, true
	case "STOP", "stop":
		return RepeatStop, true
	default:
		return RepeatAll, false
	}
}

// Behaviour configures the readapt cycle counts and what happens after
// the last hard cycle.
type Behaviour struct {
	NWaitsBeforeReadapt int
	NSoftsBeforeHard    int
	NHardsBeforeStop    int
	RepeatMode          RepeatMode
}

// DefaultBehaviour is a handful of softs per hard, one hard minimum, stop
// once the repeat policy is exhausted.
func DefaultBehaviour() Behaviour {
	return Behaviour{
		NWaitsBeforeReadapt: 0,
		NSoftsBeforeHard:    5,
		NHardsBeforeStop:    1,
		RepeatMode:          RepeatStop,
	}
}

// Config is the tuner's immutable-after-init configuration.
type Config struct {
	PerfMode     params.PerfMode `yaml:"perf_mode"`
	Tradeoff     float64         `yaml:"tradeoff"`
	Bandwidth    float64         `yaml:"bandwidth"` // KB/s
	Behaviour    Behaviour       `yaml:"-"`
	CParamsHint  bool            `yaml:"cparams_hint"`
	UseInference int             `yaml:"use_inference"`
	ModelsDir    string          `yaml:"models_dir"`
	Trace        bool            `yaml:"trace"`
	MaxThreads   int             `yaml:"max_threads"`

	// AvailableCodecs restricts the search to codecs the runtime's codec
	// table actually has registered. Nil (the default) assumes every
	// codec the tradeoff band admits is available; a host whose build
	// omits an optional codec (no libzstd, say) sets this from its own
	// capability probe.
	AvailableCodecs []params.Codec `yaml:"-"`
}

// DefaultConfig returns a BALANCED, mid-tradeoff configuration with
// inference disabled. A zero-value Config differs from it (COMP mode,
// tradeoff 0, no bandwidth, no softs).
func DefaultConfig() Config {
	return Config{
		PerfMode:     params.PerfBalanced,
		Tradeoff:     0.5,
		Bandwidth:    1024 * 1024, // 1 GB/s in KB/s
		Behaviour:    DefaultBehaviour(),
		CParamsHint:  false,
		UseInference: 0,
		ModelsDir:    "",
		Trace:        false,
		MaxThreads:   1,
	}
}

// Validate clamps/replaces out-of-range fields in place. An out-of-range
// tradeoff or bandwidth is logged as a warning (ErrConfigInvalid);
// MaxThreads and NHardsBeforeStop are clamped without a warning. It never
// returns an error: configuration problems are never fatal.
func (c *Config) Validate() {
	if c.Tradeoff < 0.0 || c.Tradeoff > 1.0 {
		logrus.Warnf("btune: %v: tradeoff=%v out of [0,1], clamping", ErrConfigInvalid, c.Tradeoff)
		if c.Tradeoff < 0 {
			c.Tradeoff = 0
		} else {
			c.Tradeoff = 1
		}
	}
	if c.Bandwidth <= 0 {
		logrus.Warnf("btune: %v: bandwidth=%v must be positive, using default", ErrConfigInvalid, c.Bandwidth)
		c.Bandwidth = DefaultConfig().Bandwidth
	}
	if c.MaxThreads < 1 {
		c.MaxThreads = 1
	}
	if c.Behaviour.NHardsBeforeStop < 0 {
		c.Behaviour.NHardsBeforeStop = 0
	}
}

// yamlConfig mirrors the subset of Config a YAML file may set; Behaviour
// is flattened so authors don't need to nest it.
type yamlConfig struct {
	PerfMode            string  `yaml:"perf_mode"`
	Tradeoff            float64 `yaml:"tradeoff"`
	Bandwidth           float64 `yaml:"bandwidth"`
	CParamsHint         bool    `yaml:"cparams_hint"`
	UseInference        int     `yaml:"use_inference"`
	ModelsDir           string  `yaml:"models_dir"`
	Trace               bool    `yaml:"trace"`
	MaxThreads          int     `yaml:"max_threads"`
	NWaitsBeforeReadapt int     `yaml:"nwaits_before_readapt"`
	NSoftsBeforeHard    int     `yaml:"nsofts_before_hard"`
	NHardsBeforeStop    int     `yaml:"nhards_before_stop"`
	RepeatMode          string  `yaml:"repeat_mode"`
}

// LoadConfig reads a YAML configuration file with strict field checking,
// the same KnownFields(true) idiom the teacher's cmd package uses for
// defaults.yaml. A missing path is not an error: DefaultConfig is
// returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var raw yamlConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return cfg, err
	}

	if mode, ok := params.ParsePerfMode(raw.PerfMode); ok {
		cfg.PerfMode = mode
	}
	if raw.Tradeoff != 0 {
		cfg.Tradeoff = raw.Tradeoff
	}
	if raw.Bandwidth != 0 {
		cfg.Bandwidth = raw.Bandwidth
	}
	cfg.CParamsHint = raw.CParamsHint
	cfg.UseInference = raw.UseInference
	cfg.ModelsDir = raw.ModelsDir
	cfg.Trace = raw.Trace
	if raw.MaxThreads > 0 {
		cfg.MaxThreads = raw.MaxThreads
	}
	if raw.NWaitsBeforeReadapt > 0 {
		cfg.Behaviour.NWaitsBeforeReadapt = raw.NWaitsBeforeReadapt
	}
	if raw.NSoftsBeforeHard > 0 {
		cfg.Behaviour.NSoftsBeforeHard = raw.NSoftsBeforeHard
	}
	if raw.NHardsBeforeStop > 0 {
		cfg.Behaviour.NHardsBeforeStop = raw.NHardsBeforeStop
	}
	if mode, ok := parseRepeatMode(raw.RepeatMode); ok {
		cfg.Behaviour.RepeatMode = mode
	}
	return cfg, nil
}

// ApplyEnvOverrides applies BTUNE_TRADEOFF, BTUNE_PERF_MODE,
// BTUNE_MODELS_DIR, BTUNE_USE_INFERENCE and BTUNE_TRACE on top of cfg, in
// that order, exactly once at Init. Unparseable values are
// logged and ignored rather than applied.
func ApplyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("BTUNE_TRADEOFF"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Tradeoff = f
		} else {
			logrus.Warnf("btune: %v: BTUNE_TRADEOFF=%q is not a float, ignoring", ErrConfigInvalid, v)
		}
	}
	if v, ok := os.LookupEnv("BTUNE_PERF_MODE"); ok {
		if mode, ok := params.ParsePerfMode(v); ok {
			cfg.PerfMode = mode
		} else {
			logrus.Warnf("btune: %v: BTUNE_PERF_MODE=%q unrecognized, ignoring", ErrConfigInvalid, v)
		}
	}
	if v, ok := os.LookupEnv("BTUNE_MODELS_DIR"); ok {
		cfg.ModelsDir = v
	}
	if v, ok := os.LookupEnv("BTUNE_USE_INFERENCE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UseInference = n
		} else {
			logrus.Warnf("btune: %v: BTUNE_USE_INFERENCE=%q is not an int, ignoring", ErrConfigInvalid, v)
		}
	}
	if _, ok := os.LookupEnv("BTUNE_TRACE"); ok {
		cfg.Trace = true
	}
}
