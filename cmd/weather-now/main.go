// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the weather-now command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/weather-now/internal/config"
	"github.com/wneessen/weather-now/internal/logger"
	"github.com/wneessen/weather-now/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.NewLogger(slog.LevelError, os.Stderr)

	confPath := flag.String("config", "", "path to the config file")
	city := flag.String("city", "", "look up the weather for the given place name")
	units := flag.String("units", "", "unit system to use (metric or imperial)")
	watch := flag.Bool("watch", false, "keep running and re-render on every change")
	asJSON := flag.Bool("json", false, "print the output as JSON object")
	share := flag.String("share", "", "print a share link for the location below the given base URL")
	toggleTheme := flag.Bool("toggle-theme", false, "toggle and persist the light/dark theme")
	flag.Parse()

	conf, err := loadConfig(*confPath)
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}
	if *units != "" {
		conf.Units = *units
	}

	log = logger.NewLogger(conf.LogLevel, os.Stderr)
	serv, err := service.New(conf, log)
	if err != nil {
		log.Error("failed to initialize weather-now service", logger.Err(err))
		os.Exit(1)
	}
	serv.SetOutput(os.Stdout, *asJSON)

	if *toggleTheme {
		next, err := serv.ToggleTheme()
		if err != nil {
			log.Error("failed to toggle theme", logger.Err(err))
			os.Exit(1)
		}
		log.Info("theme changed", slog.String("theme", string(next)))
	}

	if *city != "" {
		err = serv.SearchByName(ctx, *city)
	} else {
		err = serv.UseCurrentLocation(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("failed to look up weather", logger.Err(err))
	}
	serv.PrintState(ctx)

	if *share != "" {
		link, err := service.ShareURL(*share, serv.State().DisplayName)
		if err != nil {
			log.Error("failed to create share link", logger.Err(err))
			os.Exit(1)
		}
		fmt.Println(link)
	}

	if !*watch {
		if err != nil || serv.State().Current == nil {
			os.Exit(1)
		}
		return
	}

	log.Info("starting weather-now service", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date),
		slog.String("unit", string(serv.State().Unit)))
	if err = serv.Run(ctx); err != nil {
		log.Error("failed to run weather-now service", logger.Err(err))
	}
	log.Info("shutting down weather-now service")
}

// loadConfig reads the config file at confPath or, if none was given, the first config file found
// in the default location.
func loadConfig(confPath string) (*config.Config, error) {
	if confPath == "" {
		confPath = findConfigFile()
	}
	if confPath == "" {
		return config.New()
	}
	return config.NewFromFile(filepath.Dir(confPath), filepath.Base(confPath))
}

func findConfigFile() string {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "weather-now", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
