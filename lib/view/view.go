package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"goanalytics/lib/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"
	log "github.com/sirupsen/logrus"
)

// Columns is the contract with the crawled OCSF audit log table.
var Columns = []string{
	"activity_id",
	"activity_name",
	"actor",
	"category_name",
	"category_uid",
	"class_name",
	"device",
	"http_request",
	"metadata",
	"raw_data",
	"severity_id",
	"status",
	"status_id",
	"time",
	"type_name",
	"type_uid",
	"user",
	"auth_protocol",
	"auth_protocol_id",
	"message",
	"severity",
	"status_detail",
	"partition_0",
	"partition_1",
	"partition_2",
	"partition_3",
	"partition_4",
	"partition_5",
	"partition_6",
	"partition_7",
	"actor.user.email_addr AS user_email_addr",
	"actor.user.name AS user_name",
	"actor.user.type AS user_type",
	"device.ip AS device_ip",
	"device.type AS device_type",
	"device.location.city",
	"device.location.country",
	"device.location.postal_code",
	"device.os.name AS os_name",
	"device.os.type AS os_type",
}

var ErrMissingTable = errors.New("view: table name is required")
var ErrMissingOutput = errors.New("view: output location is required")

func ViewName(table string) string {
	return "view_" + table
}

func BuildStatement(database string, table string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE OR REPLACE VIEW \"%s\".\"%s\" AS\nSELECT\n", database, ViewName(table))
	for i, col := range Columns {
		sb.WriteString("    ")
		sb.WriteString(col)
		if i < len(Columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "FROM \"%s\".\"%s\"", database, table)
	return sb.String()
}

type Publisher struct {
	Client athenaiface.AthenaAPI
	Config config.ViewConfig
}

func NewPublisher(client athenaiface.AthenaAPI, c config.ViewConfig) (*Publisher, error) {
	if c.Table == "" {
		return nil, ErrMissingTable
	}
	if c.OutputUri == "" {
		return nil, ErrMissingOutput
	}
	if c.Database == "" {
		c.Database = config.DefaultDatabase
	}
	return &Publisher{Client: client, Config: c}, nil
}

// Publish submits the view statement and returns the execution id without
// waiting for the query to finish.
func (p *Publisher) Publish(ctx context.Context) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(BuildStatement(p.Config.Database, p.Config.Table)),
		QueryExecutionContext: &athena.QueryExecutionContext{
			Database: aws.String(p.Config.Database),
		},
		ResultConfiguration: &athena.ResultConfiguration{
			OutputLocation: aws.String(p.Config.OutputUri),
		},
	}
	if p.Config.WorkGroup != "" {
		input.WorkGroup = aws.String(p.Config.WorkGroup)
	}

	res, err := p.Client.StartQueryExecutionWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("start query execution for %s: %w", ViewName(p.Config.Table), err)
	}

	id := aws.StringValue(res.QueryExecutionId)
	log.WithFields(log.Fields{
		"view":             ViewName(p.Config.Table),
		"queryExecutionId": id,
	}).Info("submitted view statement")
	return id, nil
}
