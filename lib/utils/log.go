package utils

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambdacontext"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging switches logrus to JSON. CloudWatch stamps each line, so
// the timestamp is dropped.
func ConfigureLogging() {
	log.SetFormatter(&log.JSONFormatter{DisableTimestamp: true})
	log.SetOutput(os.Stdout)
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
}

// InvocationLogger carries the request id and function name of the current
// invocation.
func InvocationLogger(ctx context.Context) *log.Entry {
	fields := log.Fields{"function": lambdacontext.FunctionName}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		fields["requestId"] = lc.AwsRequestID
	}
	return log.WithFields(fields)
}

func LogUsageForLambda(ctx context.Context) {
	InvocationLogger(ctx).Info("REPORT")
}
