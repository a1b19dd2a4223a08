package main

import (
	"github.com/ds124wfegd/image-transform/config"
	"github.com/ds124wfegd/image-transform/internal/appServer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	configDir := pflag.String("config", config.GetEnv("TRANSFORM_CONFIG_DIR", "./config"), "directory containing config.yaml")
	pflag.Parse()

	viperInstance, err := config.LoadConfig(*configDir)
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	appServer.RunWarmer(cfg)
}
