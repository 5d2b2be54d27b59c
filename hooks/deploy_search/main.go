package main

import (
	"context"

	"goanalytics/lib/config"
	"goanalytics/lib/dashboards"
	"goanalytics/lib/lifecycle"
	"goanalytics/lib/utils"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	log "github.com/sirupsen/logrus"
)

var dispatcher lifecycle.Dispatcher

func handler(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	utils.LogUsageForLambda(ctx)
	return dispatcher.Handle(ctx, event)
}

func main() {
	utils.ConfigureLogging()
	config.LoadDotEnv()

	c, err := config.LoadSearchConfig(config.Env())
	if err != nil {
		log.WithError(err).Fatal("deploy_search configuration")
	}
	log.WithFields(log.Fields{"endpoint": c.Endpoint, "langOption": c.LangOption}).Info("deploy_search start")

	// signing credentials come from the execution role
	sess := session.Must(session.NewSession(aws.NewConfig().WithRegion(c.Region)))
	client, err := dashboards.NewClient(c, sess.Config.Credentials)
	if err != nil {
		log.WithError(err).Fatal("opensearch client")
	}
	dispatcher = dashboards.NewProvisioner(client, c).Dispatcher()

	lambda.Start(cfn.LambdaWrap(handler))
}
