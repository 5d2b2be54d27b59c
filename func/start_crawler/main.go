package main

import (
	"context"

	"goanalytics/lib/config"
	"goanalytics/lib/crawler"
	"goanalytics/lib/utils"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/glue"
	log "github.com/sirupsen/logrus"
)

var (
	starter     *crawler.Starter
	crawlerName string
)

func handler(ctx context.Context, payload map[string]interface{}) (crawler.Response, error) {
	utils.LogUsageForLambda(ctx)
	return starter.Start(ctx, crawlerName), nil
}

func main() {
	utils.ConfigureLogging()
	config.LoadDotEnv()

	c, err := config.LoadCrawlerConfig(config.Env())
	if err != nil {
		log.WithError(err).Fatal("start_crawler configuration")
	}
	crawlerName = c.CrawlerName

	awsCfg := aws.NewConfig()
	if c.Region != "" {
		awsCfg = awsCfg.WithRegion(c.Region)
	}
	sess := session.Must(session.NewSession(awsCfg))
	starter = crawler.NewStarter(glue.New(sess))

	lambda.Start(handler)
}
