package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	gcs "cloud.google.com/go/storage"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	vision "cloud.google.com/go/vision/v2/apiv1"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/takitsuba/kindle-audify/internal/audio"
	"github.com/takitsuba/kindle-audify/internal/config"
	"github.com/takitsuba/kindle-audify/internal/ocr"
	"github.com/takitsuba/kindle-audify/internal/pipeline"
	"github.com/takitsuba/kindle-audify/internal/speech"
	"github.com/takitsuba/kindle-audify/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:          "kindle-audify gs://BUCKET/PATH.pdf",
	Short:        "Turn a scanned book PDF into a single narrated MP3",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	bucket, object, err := storage.SplitURI(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	gcsClient, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("storage client: %w", err)
	}
	defer gcsClient.Close()

	visionClient, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("vision client: %w", err)
	}
	defer visionClient.Close()

	ttsClient, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("text-to-speech client: %w", err)
	}
	defer ttsClient.Close()

	store := storage.NewGCS(gcsClient, bucket)
	provider := ocr.NewVision(visionClient, store, bucket, cfg.OCRBatchSize, log)
	synth := speech.NewCloudTTS(ttsClient, cfg.LanguageCode, cfg.VoiceGender)
	stage := speech.NewStage(store, synth, log, cfg.ChunkMaxChars, cfg.Concurrency, cfg.MaxAttempts)
	merger := audio.NewMerger(store, log, cfg.MaxCombine, cfg.Concurrency, cfg.MaxAttempts)

	p := pipeline.New(store, provider, stage, merger, log, cfg.SentenceDelimiter)

	out, err := p.Run(ctx, object)
	if err != nil {
		return err
	}
	log.Info("done", "output", "gs://"+bucket+"/"+out)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
