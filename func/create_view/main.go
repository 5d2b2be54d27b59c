package main

import (
	"context"

	"goanalytics/lib/config"
	"goanalytics/lib/utils"
	"goanalytics/lib/view"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/athena"
	log "github.com/sirupsen/logrus"
)

var publisher *view.Publisher

func handler(ctx context.Context, payload map[string]interface{}) (string, error) {
	utils.LogUsageForLambda(ctx)
	return publisher.Publish(ctx)
}

func main() {
	utils.ConfigureLogging()
	config.LoadDotEnv()

	c, err := config.LoadViewConfig(config.Env())
	if err != nil {
		log.WithError(err).Fatal("create_view configuration")
	}

	sess := session.Must(session.NewSession(aws.NewConfig().WithRegion(c.Region)))
	publisher, err = view.NewPublisher(athena.New(sess), c)
	if err != nil {
		log.WithError(err).Fatal("create_view configuration")
	}

	lambda.Start(handler)
}
