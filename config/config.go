package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"connect4ai/ai"
	"connect4ai/games"
	"connect4ai/render"
)

const EnvPrefix = "C4"

type Config struct {
	ServerAddr string `mapstructure:"server_addr"`
	DBPath     string `mapstructure:"db_path"`
	LogLevel   string `mapstructure:"log_level"`
	LogPretty  bool   `mapstructure:"log_pretty"`

	MinimaxDepth       int           `mapstructure:"minimax_depth"`
	AlphaBetaDepth     int           `mapstructure:"alphabeta_depth"`
	TurnBudget         time.Duration `mapstructure:"turn_budget"`
	IterativeDeepening bool          `mapstructure:"iterative_deepening"`
	CacheMaxEntries    int           `mapstructure:"cache_max_entries"`
	CachePerTurn       bool          `mapstructure:"cache_per_turn"`
	CVDMode            bool          `mapstructure:"cvd_mode"`
	Seed               uint64        `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_addr", ":9000")
	v.SetDefault("db_path", "connect4.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("minimax_depth", ai.DefaultMinimaxDepth)
	v.SetDefault("alphabeta_depth", ai.DefaultAlphaBetaDepth)
	v.SetDefault("turn_budget", ai.DefaultTurnBudget)
	v.SetDefault("iterative_deepening", false)
	v.SetDefault("cache_max_entries", 1<<20)
	v.SetDefault("cache_per_turn", false)
	v.SetDefault("cvd_mode", false)
	v.SetDefault("seed", 0)
}

// Load reads defaults, then the YAML file at path if one is given, then
// C4_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MinimaxDepth < 1 || c.AlphaBetaDepth < 1 {
		return errors.New("search depths must be at least 1")
	}
	if c.TurnBudget < 0 {
		return errors.New("turn_budget must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level is the parsed log level; Validate has already rejected bad values.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (c *Config) Palette() render.Palette {
	return render.PaletteFor(c.CVDMode)
}

// SearchOptions returns the agent options for engine under this config.
func (c *Config) SearchOptions(engine ai.EngineKind) ai.Options {
	o := ai.DefaultOptions(engine)
	o.Depth = c.AlphaBetaDepth
	if engine == ai.EngineMinimax {
		o.Depth = c.MinimaxDepth
	}
	o.Seed = c.Seed
	o.Presentation = c.Palette()
	o.TurnBudget = c.TurnBudget
	o.IterativeDeepening = c.IterativeDeepening
	o.CacheMaxEntries = c.CacheMaxEntries
	o.CachePerTurn = c.CachePerTurn
	return o
}

// Setup describes an agent of the given kind name. The mark is filled in
// by ai.Pair or by the caller.
func (c *Config) Setup(kind string) ai.Setup {
	engine := ai.EngineKind(kind)
	if kind != ai.KindMinimax {
		engine = ai.EngineAlphaBeta
	}
	return ai.Setup{
		Kind:         kind,
		Seed:         c.Seed,
		Presentation: c.Palette(),
		Search:       c.SearchOptions(engine),
	}
}

// NewBot builds a server bot of kind for mark with its opponent bound.
func (c *Config) NewBot(kind string, mark games.Mark) (games.Agent, error) {
	if kind == ai.KindConsole {
		return nil, fmt.Errorf("%w: %q cannot seat a bot", ai.ErrUnknownKind, kind)
	}
	s := c.Setup(kind)
	s.Mark = mark
	a, err := ai.New(s)
	if err != nil {
		return nil, err
	}
	a.SetOpponent(mark.Opponent())
	return a, nil
}

// NewAnalyzer builds a search agent for one analysis. depth <= 0 keeps the
// configured depth for engine.
func (c *Config) NewAnalyzer(engine ai.EngineKind, mark games.Mark, depth int) (*ai.SearchAgent, error) {
	o := c.SearchOptions(engine)
	if depth > 0 {
		o.Depth = depth
	}
	return ai.NewSearchAgent(mark, o)
}
