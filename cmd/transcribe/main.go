package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"papareo"
	"papareo/cfg"
)

func main() {
	var cfgPath string
	var token string
	var large bool
	var out string
	var metricsPort int
	flag.StringVar(&cfgPath, "cfg-path", "", "path to config file")
	flag.StringVar(&token, "token", "", "API token, overrides config and PAPAREO_TOKEN")
	flag.BoolVar(&large, "large", false, "use the asynchronous large-audio workflow")
	flag.StringVar(&out, "out", "", "transcript output path (large workflow only)")
	flag.IntVar(&metricsPort, "metrics-port", 0, "serve /metrics on this port while transcribing, 0 disables")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: transcribe [flags] <audio-file>")
	}
	audioPath := flag.Arg(0)

	var config cfg.Config
	if cfgPath != "" {
		cfgFile, err := os.ReadFile(cfgPath)
		if err != nil {
			log.Fatalf("can't open %s file: %v", cfgPath, err)
		}
		if err := yaml.Unmarshal(cfgFile, &config); err != nil {
			log.Fatalf("can't unmarshal %s file: %v", cfgPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	papareo.RegisterMetrics(reg)
	if metricsPort != 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(":"+strconv.Itoa(metricsPort), mux); err != nil {
				logger.Error("metrics listener failed", "err", err)
			}
		}()
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	client := papareo.New(httpClient, &config.Papareo)
	client.SetToken(token)
	if !client.HasToken() {
		log.Fatalf("no API token: use -token, the config file, or %s", papareo.TokenEnvVar)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		logger.Info("interrupt, cancelling transcription")
		client.Cancel(context.Background())
		cancel()
	}()

	if !large {
		audio, err := os.Open(audioPath)
		if err != nil {
			log.Fatal("failed to open recording: ", err)
		}
		defer audio.Close()

		text, err := client.TranscribeUtterance(ctx, audio)
		if err != nil {
			log.Fatal("transcription failed: ", err)
		}
		fmt.Println(text)
		return
	}

	logger.Info("submitting recording", "file", audioPath)

	vttPath, err := client.TranscribeRecording(ctx, audioPath)
	if errors.Is(err, papareo.ErrCancelled) || errors.Is(err, context.Canceled) {
		logger.Info("transcription cancelled")
		return
	}
	if err != nil {
		log.Fatal("transcription failed: ", err)
	}

	if out == "" {
		base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
		out = filepath.Join(config.Output.Dir, base+".vtt")
	}
	if err := moveFile(vttPath, out); err != nil {
		log.Fatal("failed to write transcript: ", err)
	}

	logger.Info("transcript written", "path", out)
}

// moveFile renames src to dst, copying when they are on different
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
