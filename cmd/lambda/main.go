package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"pump_control/internal/app"
	"pump_control/internal/config"
	"pump_control/internal/invoke"
	"pump_control/internal/service"
)

var handler *invoke.Handler

// init runs once per cold start; warm invocations reuse the cached session.
func init() {
	path := os.Getenv("PUMP_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	a, err := app.New(context.Background(), path)
	if err != nil {
		panic(err)
	}
	a.Log.Infow("lambda_cold_start", "config", path)

	handler = &invoke.Handler{
		Cycles:    a.Services,
		Alarms:    a.Services,
		Scheduler: service.NewScheduler(a.Services, a.Source, a.Log),
		Log:       a.Log,
	}
}

func main() {
	lambda.Start(handler.HandleRequest)
}
