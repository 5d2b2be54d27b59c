package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/glue"
	"github.com/aws/aws-sdk-go/service/glue/glueiface"
	log "github.com/sirupsen/logrus"
)

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type Starter struct {
	Client glueiface.GlueAPI
}

func NewStarter(client glueiface.GlueAPI) *Starter {
	return &Starter{Client: client}
}

// Start makes exactly one StartCrawler call and maps the outcome to a status
// code. It never returns an error.
func (s *Starter) Start(ctx context.Context, name string) Response {
	logger := log.WithField("crawler", name)

	_, err := s.Client.StartCrawlerWithContext(ctx, &glue.StartCrawlerInput{
		Name: aws.String(name),
	})

	var res Response
	switch {
	case err == nil:
		res = Response{StatusCode: http.StatusOK, Body: fmt.Sprintf("Successfully started crawler: %s", name)}
	case isCrawlerRunning(err):
		res = Response{StatusCode: http.StatusBadRequest, Body: fmt.Sprintf("Crawler %s is already running or starting", name)}
	case isEntityNotFound(err):
		res = Response{StatusCode: http.StatusNotFound, Body: fmt.Sprintf("Crawler %s not found", name)}
	default:
		res = Response{StatusCode: http.StatusInternalServerError, Body: fmt.Sprintf("Error starting crawler: %s", err.Error())}
	}

	if res.StatusCode == http.StatusOK {
		logger.Info(res.Body)
	} else {
		logger.WithField("statusCode", res.StatusCode).Warn(res.Body)
	}
	return res
}

func isCrawlerRunning(err error) bool {
	var running *glue.CrawlerRunningException
	return errors.As(err, &running) || isCode(err, glue.ErrCodeCrawlerRunningException)
}

func isEntityNotFound(err error) bool {
	var notFound *glue.EntityNotFoundException
	return errors.As(err, &notFound) || isCode(err, glue.ErrCodeEntityNotFoundException)
}

// isCode covers errors that only carry the service error code.
func isCode(err error, code string) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == code
	}
	return false
}
