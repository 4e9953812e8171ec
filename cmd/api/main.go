package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"petconnect/internal/adapters/blob/miniostore"
	"petconnect/internal/platform/logger"
	"petconnect/internal/router"
)

func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	opts := router.Options{Log: log}

	// Blob store: MinIO si está configurado, si no queda el in-memory (dev).
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		store, err := miniostore.New(miniostore.Config{
			Endpoint:  endpoint,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    os.Getenv("MINIO_BUCKET"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
			BaseURL:   os.Getenv("MINIO_PUBLIC_BASE"),
		})
		if err != nil {
			log.Error("minio config invalid", map[string]any{"err": err.Error()})
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBucket(ctx); err != nil {
			cancel()
			log.Error("minio bucket check failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		cancel()

		opts.Photos = store
	}

	r := router.NewRouter(opts)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // los websockets del feed/distress viven más que un request normal
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}
