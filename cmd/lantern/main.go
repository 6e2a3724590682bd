package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lantern/pkg/host"
	"lantern/pkg/player"
)

func main() {
	configFlag := flag.String("config", "", "TOML configuration file")
	urlFlag := flag.String("url", "", "Movie URL reported to scripts (default: the input path)")
	framesFlag := flag.Int("frames", 1, "Number of frames to run")
	fpsFlag := flag.Float64("fps", 0, "Override the configured frame rate")
	varsFlag := flag.String("vars", "", "Movie parameters as k=v,k=v")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: lantern [options] <script-file>\n")
		flag.PrintDefaults()
		os.Exit(64)
	}
	inputFile := flag.Arg(0)

	cfg := player.DefaultConfig()
	if *configFlag != "" {
		loaded, err := player.LoadConfig(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lantern: %v\n", err)
			os.Exit(64)
		}
		cfg = loaded
	}
	if *fpsFlag > 0 {
		cfg.FrameRate = *fpsFlag
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lantern: %v\n", err)
		os.Exit(66)
	}

	movieURL := *urlFlag
	if movieURL == "" {
		movieURL = inputFile
	}

	p, err := player.New(cfg, player.Hosts{
		Log:       host.NewCommonLog("lantern"),
		Navigator: host.NewFetchNavigator(10 * time.Second),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "lantern: %v\n", err)
		os.Exit(70)
	}

	if err := p.LoadMovie(data, movieURL, parseVars(*varsFlag)); err != nil {
		fmt.Fprintf(os.Stderr, "lantern: load %s: %v\n", inputFile, err)
		os.Exit(65)
	}

	frameMs := 1000.0 / cfg.FrameRate
	for i := 0; i < *framesFlag; i++ {
		p.Tick(frameMs)
	}
}

// parseVars splits "k=v,k=v" into movie parameters.
func parseVars(s string) map[string]string {
	if s == "" {
		return nil
	}
	vars := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, _ := strings.Cut(pair, "=")
		if k != "" {
			vars[k] = v
		}
	}
	return vars
}
