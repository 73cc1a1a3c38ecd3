/*
Copyright 2023 The Rivulet Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rivulet-video/rivulet/pkg/client"
	"github.com/rivulet-video/rivulet/pkg/config"
	"github.com/rivulet-video/rivulet/pkg/devices"
	"github.com/rivulet-video/rivulet/pkg/profiling"
	"github.com/rivulet-video/rivulet/pkg/telemetry"
	"github.com/sirupsen/logrus"
)

func main() {
	// Parse command line flags.
	var (
		configFilePath = flag.String("config", "config.yaml", "configuration file path")
		cpuProfile     = flag.String("cpuProfile", "", "write CPU profile to `file`")
		memProfile     = flag.String("memProfile", "", "write memory profile to `file`")
	)
	flag.Parse()

	// Initialize logging subsystem (formatting, global logging framework etc).
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})

	// Define functions that are called before exiting.
	// This is useful to stop the profiler if it's enabled.
	deferred_functions := []func(){}
	if *cpuProfile != "" {
		deferred_functions = append(deferred_functions, profiling.InitCPUProfiling(*cpuProfile))
	}
	if *memProfile != "" {
		deferred_functions = append(deferred_functions, profiling.InitMemoryProfiling(*memProfile))
	}

	// Handle signal interruptions.
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		for _, function := range deferred_functions {
			function()
		}
		cancel()
	}()

	// Load the config file from the environment variable or path.
	config, err := config.LoadConfig(*configFilePath)
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
		return
	}

	switch config.LogLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	// Set up tracing if a Jaeger collector is configured.
	if config.Telemetry.JaegerURL != "" {
		provider, err := telemetry.SetupTelemetry(config.Telemetry)
		if err != nil {
			logrus.WithError(err).Fatal("could not set up telemetry")
			return
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logrus.WithError(err).Error("could not shut down telemetry")
			}
		}()
	}

	// The default audio routing only tracks the selection; platform
	// integrations plug in their own manager.
	audioDevices := devices.NewManager([]devices.Device{
		{ID: "earpiece", Name: "Earpiece", Kind: devices.Earpiece},
		{ID: "speakerphone", Name: "Speakerphone", Kind: devices.Speakerphone},
	})

	// Create the client and keep its event loop running until interrupted.
	videoClient, err := client.New(config, audioDevices)
	if err != nil {
		logrus.WithError(err).Fatal("could not create client")
		return
	}
	defer videoClient.Close()

	// Log every call state transition, so that a headless run is observable.
	go func() {
		for state := range videoClient.Engine().Subscribe() {
			logrus.Infof("call state: %s", state)
		}
	}()

	if err := videoClient.Run(ctx); err != nil && err != context.Canceled {
		logrus.WithError(err).Fatal("client loop failed")
	}
}
