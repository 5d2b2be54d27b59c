package view

import (
	"context"
	"errors"
	"strings"
	"testing"

	"goanalytics/lib/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/athena"
	"github.com/aws/aws-sdk-go/service/athena/athenaiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAthena struct {
	athenaiface.AthenaAPI
	inputs []*athena.StartQueryExecutionInput
	id     string
	err    error
}

func (f *fakeAthena) StartQueryExecutionWithContext(ctx aws.Context, in *athena.StartQueryExecutionInput, opts ...request.Option) (*athena.StartQueryExecutionOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String(f.id)}, nil
}

func testConfig() config.ViewConfig {
	return config.ViewConfig{
		Table:     "okta_audit",
		OutputUri: "s3://athena-results/views/",
		Region:    "us-east-1",
		Database:  config.DefaultDatabase,
	}
}

func TestBuildStatement(t *testing.T) {
	stmt := BuildStatement("appfabricdataanalyticsdb", "okta_audit")

	assert.True(t, strings.HasPrefix(stmt, `CREATE OR REPLACE VIEW "appfabricdataanalyticsdb"."view_okta_audit" AS`))
	assert.True(t, strings.HasSuffix(stmt, `FROM "appfabricdataanalyticsdb"."okta_audit"`))
	assert.Equal(t, 1, strings.Count(stmt, `"okta_audit"`))
	assert.Contains(t, stmt, "actor.user.email_addr AS user_email_addr,\n")
	assert.Contains(t, stmt, "    device.os.type AS os_type\nFROM")
	assert.Equal(t, len(Columns)-1, strings.Count(stmt, ",\n"))
}

func TestBuildStatementIsDeterministic(t *testing.T) {
	for _, table := range []string{"a", "okta_audit", "slack_logs_2024"} {
		assert.Equal(t, BuildStatement("db", table), BuildStatement("db", table))
		assert.Contains(t, BuildStatement("db", table), `"db"."view_`+table+`"`)
	}
}

func TestPublish(t *testing.T) {
	fake := &fakeAthena{id: "a1b2c3"}
	p, err := NewPublisher(fake, testConfig())
	require.NoError(t, err)

	id, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3", id)

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	assert.Equal(t, "s3://athena-results/views/", aws.StringValue(in.ResultConfiguration.OutputLocation))
	assert.Equal(t, "appfabricdataanalyticsdb", aws.StringValue(in.QueryExecutionContext.Database))
	assert.Nil(t, in.WorkGroup)
	assert.Equal(t, BuildStatement("appfabricdataanalyticsdb", "okta_audit"), aws.StringValue(in.QueryString))
}

func TestPublishWithWorkGroup(t *testing.T) {
	fake := &fakeAthena{id: "x"}
	c := testConfig()
	c.WorkGroup = "primary"
	p, err := NewPublisher(fake, c)
	require.NoError(t, err)

	_, err = p.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary", aws.StringValue(fake.inputs[0].WorkGroup))
}

func TestPublishPropagatesError(t *testing.T) {
	boom := errors.New("AccessDeniedException")
	p, err := NewPublisher(&fakeAthena{err: boom}, testConfig())
	require.NoError(t, err)

	id, err := p.Publish(context.Background())
	assert.Empty(t, id)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "view_okta_audit")
}

func TestNewPublisherRequiresConfig(t *testing.T) {
	c := testConfig()
	c.Table = ""
	_, err := NewPublisher(&fakeAthena{}, c)
	assert.ErrorIs(t, err, ErrMissingTable)

	c = testConfig()
	c.OutputUri = ""
	_, err = NewPublisher(&fakeAthena{}, c)
	assert.ErrorIs(t, err, ErrMissingOutput)
}
