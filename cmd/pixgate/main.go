/*
This command provides an executable version of pixgate with the
built-in image engine.

For the list of command line options, run:

	pixgate -help

For details about the usage and extensibility of pixgate, please see the
documentation of the root pixgate package.
*/
package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/pixgate/pixgate"
	"github.com/pixgate/pixgate/config"
	"github.com/pixgate/pixgate/dataclients/yamlfile"
	"github.com/pixgate/pixgate/engine/stdimage"
	"github.com/pixgate/pixgate/logging"
)

func main() {
	cfg := config.NewConfig()
	if err := cfg.Parse(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	if cfg.DataFile == "" {
		log.Fatal("missing -data-file")
	}

	store, err := yamlfile.Open(cfg.DataFile)
	if err != nil {
		log.Fatalf("loading %s: %v", cfg.DataFile, err)
	}

	logOptions := logging.Options{
		ApplicationLogPrefix:      cfg.ApplicationLogPrefix,
		ApplicationLogJSONEnabled: cfg.ApplicationLogJSON,
		ApplicationLogLevel:       cfg.ApplicationLogLevel,
		AccessLogDisabled:         cfg.AccessLogDisabled,
		AccessLogJSONEnabled:      cfg.AccessLogJSON,
	}

	if cfg.ApplicationLog != "" {
		f, err := openLog(cfg.ApplicationLog)
		if err != nil {
			log.Fatalf("opening application log: %v", err)
		}

		logOptions.ApplicationLogOutput = f
	}

	if cfg.AccessLog != "" {
		f, err := openLog(cfg.AccessLog)
		if err != nil {
			log.Fatalf("opening access log: %v", err)
		}

		logOptions.AccessLogOutput = f
	}

	err = pixgate.Run(pixgate.Options{
		Address:            cfg.Address,
		SupportListener:    cfg.SupportListener,
		Store:              store,
		Engine:             stdimage.New(),
		RoutingHostHeader:  cfg.RoutingHostHeader,
		MaxTransformations: cfg.MaxTransformations,
		OriginTimeout:      cfg.OriginTimeout,
		MetricsFlavour:     cfg.MetricsKind(),
		MetricsPrefix:      cfg.MetricsPrefix,
		Log:                logOptions,
	})
	if err != nil {
		log.Fatal(err)
	}
}
