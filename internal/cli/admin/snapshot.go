package admin

import (
	"context"
	"fmt"

	"github.com/campusdesk/campusdesk/internal/config"
	"github.com/campusdesk/campusdesk/internal/jobs"
	"github.com/campusdesk/campusdesk/internal/repository"
	"github.com/campusdesk/campusdesk/internal/storage"
	"github.com/campusdesk/campusdesk/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// SnapshotCmd returns the snapshot command
func SnapshotCmd() *cobra.Command {
	var printURL bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Archive a knowledge snapshot to object storage",
		Long:  "Uploads the current knowledge store contents to the configured S3 bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(printURL)
		},
	}

	cmd.Flags().BoolVar(&printURL, "url", false, "Print a presigned download URL for the latest snapshot")

	return cmd
}

func runSnapshot(printURL bool) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasS3() {
		return fmt.Errorf("S3 is not configured: set CAMPUSDESK_S3_ENDPOINT, CAMPUSDESK_S3_ACCESS_KEY_ID, CAMPUSDESK_S3_SECRET_ACCESS_KEY")
	}

	var exporter jobs.Exporter
	if cfg.HasPostgres() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		exporter = repository.NewKnowledgeRepository(pool)
	} else {
		fileStore, err := store.NewFileStore(cfg.KnowledgePath)
		if err != nil {
			return fmt.Errorf("failed to open knowledge file: %w", err)
		}
		exporter = fileStore
	}

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}

	processor := jobs.NewSnapshotWorker(exporter, s3Client, "snapshots")
	if err := processor.ProcessJobs(ctx); err != nil {
		return err
	}

	if printURL {
		url, err := s3Client.GenerateDownloadURL(ctx, "snapshots/knowledge-latest.json")
		if err != nil {
			return fmt.Errorf("failed to generate download URL: %w", err)
		}
		fmt.Println(url)
	}

	return nil
}
