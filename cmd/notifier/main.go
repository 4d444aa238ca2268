// Package main emails claim owners when a claim is inserted, driven by the
// claims table stream.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/kylejryan/claims-intake-backend/internal/awsutil"
	"github.com/kylejryan/claims-intake-backend/internal/config"
	"github.com/kylejryan/claims-intake-backend/internal/notify"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// main initializes the publisher and starts the Lambda handler.
func main() {
	env := config.MustLoad()
	slog.SetDefault(config.NewLogger(env.LogLevel))

	cfg, err := awsutil.Load(context.Background(), env.Region, env.Endpoint)
	if err != nil {
		slog.Error("notifier: load aws config", "error", err)
		os.Exit(1)
	}

	h := notify.NewHandler(notify.NewPublisher(sns.NewFromConfig(cfg), env.TopicARN))
	lambda.Start(h.HandleStream)
}
