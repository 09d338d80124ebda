package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/pixgate/pixgate/metrics"
)

// Config collects the startup options of pixgate. Each option can be set
// either as a command line flag or in a yaml config file, where the file
// values provide the defaults and explicit flags win.
type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// listeners:
	Address         string `yaml:"address"`
	SupportListener string `yaml:"support-listener"`

	// data:
	DataFile string `yaml:"data-file"`

	// pipeline:
	RoutingHostHeader  string        `yaml:"routing-host-header"`
	MaxTransformations int           `yaml:"max-transformations"`
	OriginTimeout      time.Duration `yaml:"origin-timeout"`

	// logging:
	ApplicationLog       string `yaml:"application-log"`
	ApplicationLogLevel  string `yaml:"application-log-level"`
	ApplicationLogPrefix string `yaml:"application-log-prefix"`
	ApplicationLogJSON   bool   `yaml:"application-log-json-enabled"`
	AccessLog            string `yaml:"access-log"`
	AccessLogDisabled    bool   `yaml:"access-log-disabled"`
	AccessLogJSON        bool   `yaml:"access-log-json-enabled"`

	// metrics:
	MetricsFlavour *listFlag `yaml:"metrics-flavour"`
	MetricsPrefix  string    `yaml:"metrics-prefix"`
}

func NewConfig() *Config {
	cfg := new(Config)
	cfg.MetricsFlavour = commaListFlag("codahale", "prometheus")

	flag := flag.NewFlagSet("", flag.ExitOnError)
	flag.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// listeners:
	flag.StringVar(&cfg.Address, "address", ":9090", "network address that pixgate should listen on")
	flag.StringVar(&cfg.SupportListener, "support-listener", ":9911", "network address for the /metrics and /health endpoints")

	// data:
	flag.StringVar(&cfg.DataFile, "data-file", "", "yaml file with the mappings, origins and policies")

	// pipeline:
	flag.StringVar(&cfg.RoutingHostHeader, "routing-host-header", "", "header carrying the client-facing host when pixgate runs behind another proxy")
	flag.IntVar(&cfg.MaxTransformations, "max-transformations", 0, "cap on the number of transformations applied per request, 0 means the built-in default")
	flag.DurationVar(&cfg.OriginTimeout, "origin-timeout", 30*time.Second, "timeout for fetching the source image from the origin")

	// logging:
	flag.StringVar(&cfg.ApplicationLog, "application-log", "", "output file for the application log, when not set, /dev/stderr is used")
	flag.StringVar(&cfg.ApplicationLogLevel, "application-log-level", "INFO", "log level for application logs, possible values: PANIC, FATAL, ERROR, WARN, INFO, DEBUG")
	flag.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", "[APP]", "prefix for logging user and application errors")
	flag.BoolVar(&cfg.ApplicationLogJSON, "application-log-json-enabled", false, "when this flag is set, log in JSON format is used")
	flag.StringVar(&cfg.AccessLog, "access-log", "", "output file for the access log, when not set, /dev/stderr is used")
	flag.BoolVar(&cfg.AccessLogDisabled, "access-log-disabled", false, "when this flag is set, no access log is printed")
	flag.BoolVar(&cfg.AccessLogJSON, "access-log-json-enabled", false, "when this flag is set, log in JSON format is used")

	// metrics:
	flag.Var(cfg.MetricsFlavour, "metrics-flavour", "Metrics flavour is used to change the exposed metrics format. Supported metric formats: 'codahale' and 'prometheus'")
	flag.StringVar(&cfg.MetricsPrefix, "metrics-prefix", "pixgate.", "allows to customize the prefix for metrics")

	cfg.Flags = flag
	return cfg
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ExitOnError)
	if err := c.Flags.Parse(args); err != nil {
		return err
	}

	if len(c.Flags.Args()) != 0 {
		return fmt.Errorf("invalid arguments: %s", c.Flags.Args())
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		if err := yaml.Unmarshal(yamlFile, c); err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		// explicit flags win over the file
		if err := c.Flags.Parse(args); err != nil {
			return err
		}
	}

	return validate(c)
}

// MetricsKind maps the flavour flag to a backend, defaulting to codahale.
func (c *Config) MetricsKind() metrics.Kind {
	for _, v := range c.MetricsFlavour.values {
		if v == "prometheus" {
			return metrics.PrometheusKind
		}
	}

	return metrics.CodaHaleKind
}

func validate(c *Config) error {
	if _, err := log.ParseLevel(c.ApplicationLogLevel); err != nil {
		return fmt.Errorf("invalid application-log-level: %w", err)
	}

	if c.MaxTransformations < 0 {
		return fmt.Errorf("invalid max-transformations: %d", c.MaxTransformations)
	}

	if c.OriginTimeout < 0 {
		return fmt.Errorf("invalid origin-timeout: %v", c.OriginTimeout)
	}

	return nil
}
