// The api binary serves every HTTP API route behind the gateway.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jacentio/symphony/blob"
	"github.com/jacentio/symphony/config"
	"github.com/jacentio/symphony/httpapi"
	"github.com/jacentio/symphony/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Error("failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	s := store.New(dynamodb.NewFromConfig(awsCfg), store.Config{TableName: cfg.TableName})
	b := blob.New(s3.NewFromConfig(awsCfg), cfg.BucketName)
	h := httpapi.New(s, b, cfg.CDNDomain, logger)

	lambda.Start(h.Route)
}
