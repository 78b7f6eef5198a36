// Health Check Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"welfare-scheme-engine/internal/config"
	"welfare-scheme-engine/internal/handlers"
	"welfare-scheme-engine/internal/services/catalog"
	"welfare-scheme-engine/internal/utils"
)

func main() {
	_ = utils.InitLogger("info")
	defer utils.Sync()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Catalog load failure still serves the health endpoint, which
	// then reports degraded.
	store := catalog.NewStore(cfg.CatalogPath)
	if cfg.S3Bucket != "" {
		if src, err := catalog.NewS3Source(context.Background(), cfg.S3Bucket, cfg.S3Key); err == nil {
			_ = store.LoadFromS3(context.Background(), src)
		}
	} else {
		_ = store.Load()
	}

	handler := handlers.NewHealthHandler(store)
	lambda.Start(handler.Handle)
}
