// Match Lambda entry point
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"welfare-scheme-engine/internal/config"
	"welfare-scheme-engine/internal/handlers"
	"welfare-scheme-engine/internal/services/catalog"
	"welfare-scheme-engine/internal/services/matcher"
	"welfare-scheme-engine/internal/services/scoring"
	"welfare-scheme-engine/internal/utils"
)

func main() {
	_ = utils.InitLogger("info")
	defer utils.Sync()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	store := catalog.NewStore(cfg.CatalogPath)
	if cfg.S3Bucket != "" {
		src, err := catalog.NewS3Source(context.Background(), cfg.S3Bucket, cfg.S3Key)
		if err != nil {
			panic("Failed to create S3 catalog source: " + err.Error())
		}
		if err := store.LoadFromS3(context.Background(), src); err != nil {
			panic("Failed to load catalog from S3: " + err.Error())
		}
	} else if err := store.Load(); err != nil {
		panic("Failed to load catalog: " + err.Error())
	}

	scorer, err := scoring.NewEngine(cfg.WeightProfile)
	if err != nil {
		panic("Failed to create scoring engine: " + err.Error())
	}

	engine := matcher.NewEngine(store.All(), scorer)
	handler := handlers.NewMatchHandler(engine)
	lambda.Start(handler.Handle)
}
