// Command lambda serves the refgate HTTP API behind AWS API Gateway.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/dmitrijs2005/refgate/internal/server"
	"github.com/dmitrijs2005/refgate/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	a := &adapter{handler: app.Handler(), log: app.Logger().With("module", "lambda")}
	lambda.Start(a.handle)
}
