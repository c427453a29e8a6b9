package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/looper"
	"github.com/vsariola/looper/cmd"
	"github.com/vsariola/looper/engine"
	"github.com/vsariola/looper/tui"
	"github.com/vsariola/looper/version"
)

var (
	configFile   = flag.String("config", defaultConfigFile(), "read settings from `file`")
	writeConfig  = flag.Bool("write-config", false, "print the effective settings as YAML and exit")
	backend      = flag.String("backend", "", "audio backend: malgo or oto")
	midiInput    = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
	logFile      = flag.String("log", "", "write log to `file`")
	logLevel     = flag.String("log-level", "info", "log level: debug, info, warn or error")
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to `file`")
	printVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *printVersion {
		fmt.Println(version.VersionOrHash)
		return
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	// the terminal belongs to the user interface
	logger.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("could not open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}
	settings, err := looper.LoadSettings(*configFile)
	if err != nil {
		return err
	}
	if isFlagPassed("backend") {
		settings.Audio.Backend = *backend
	}
	if isFlagPassed("midi-input") {
		settings.MIDI.Input = *midiInput
	}
	if *writeConfig {
		return looper.WriteSettings(os.Stdout, settings)
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}
	logger.WithFields(logrus.Fields{"version": version.VersionOrHash, "config": *configFile}).Info("starting")

	audio, err := cmd.NewAudioContext(settings.Audio, logger)
	if err != nil {
		return err
	}
	defer audio.Close()
	e := engine.New(settings, logger.WithField("component", "engine"))
	defer e.Close()
	if err := e.Activate(audio); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	if midi, err := cmd.ListenMIDI(settings.MIDI, e, logger); err != nil {
		logger.WithError(err).Warn("MIDI input disabled")
	} else {
		defer midi.Close()
	}

	model, unsubscribe := tui.NewModel(e)
	defer unsubscribe()
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("user interface failed: %w", err)
	}
	return nil
}

func defaultConfigFile() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "looper", "looper.yml")
	}
	return "looper.yml"
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
