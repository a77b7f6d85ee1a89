// Lambda entrypoint. API Gateway maps each route to its own function; the
// CORRAL_HANDLER environment variable selects which handler this function
// serves.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/openparks/corral/handler"
	"github.com/openparks/corral/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Fatal("load AWS config", zap.Error(err))
	}

	storeCfg := store.DefaultConfig()
	if table := os.Getenv("CORRAL_TABLE"); table != "" {
		storeCfg.Table = table
	}

	s := store.New(dynamodb.NewFromConfig(cfg), storeCfg, logger)
	h := handler.New(s, logger)

	name := os.Getenv("CORRAL_HANDLER")
	switch name {
	case "create-facility":
		lambda.Start(h.CreateFacility)
	case "update-facility":
		lambda.Start(h.UpdateFacility)
	case "create-booking":
		lambda.Start(h.CreateBooking)
	case "confirm-booking":
		lambda.Start(h.ConfirmBooking)
	default:
		logger.Fatal("unknown handler", zap.String("name", name))
	}
}
