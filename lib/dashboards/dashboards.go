package dashboards

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"goanalytics/lib/config"
	"goanalytics/lib/retry"
	"goanalytics/lib/sign"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/mitchellh/mapstructure"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	log "github.com/sirupsen/logrus"
)

type Status string

const (
	Successful Status = "successful"
	Failed     Status = "failed"
)

const (
	MaxAttempts         = 10
	ImportPath          = "/_dashboards/api/saved_objects/_import"
	ConsoleProxyPath    = "/_dashboards/api/console/proxy"
	DefaultTemplateName = "appfabric_template"
	IndexPattern        = "appfabric"
)

var ErrDashboardNotFound = errors.New("dashboard definition not found")

// ResponseError is a non-200 answer from the dashboards API.
type ResponseError struct {
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Properties are the custom resource properties a template may override.
type Properties struct {
	DashboardFile string `mapstructure:"DashboardFile"`
	TemplateName  string `mapstructure:"TemplateName"`
}

func DecodeProperties(in map[string]interface{}) (Properties, error) {
	var p Properties
	err := mapstructure.Decode(in, &p)
	return p, err
}

type Provisioner struct {
	Client         *opensearch.Client
	DashboardFile  string
	TemplateName   string
	ImportPolicy   retry.Policy
	TemplatePolicy retry.Policy
}

// NewClient builds a transport that signs every request for the serverless
// collection. Retries are owned by the provisioner policies.
func NewClient(c config.SearchConfig, creds *credentials.Credentials) (*opensearch.Client, error) {
	return opensearch.NewClient(opensearch.Config{
		Addresses: []string{c.Endpoint},
		Signer: sign.AwsSigner{
			Service:     sign.ServiceServerless,
			Region:      c.Region,
			Credentials: creds,
		},
		DisableRetry: true,
	})
}

func NewProvisioner(client *opensearch.Client, c config.SearchConfig) *Provisioner {
	return &Provisioner{
		Client:        client,
		DashboardFile: c.DashboardFile,
		TemplateName:  DefaultTemplateName,
		ImportPolicy: retry.Policy{
			MaxAttempts: MaxAttempts,
			Strategy:    retry.Linear,
			Step:        time.Second,
			Retryable: func(err error) bool {
				return !errors.Is(err, ErrDashboardNotFound)
			},
		},
		TemplatePolicy: retry.Policy{
			MaxAttempts: MaxAttempts,
			Strategy:    retry.None,
		},
	}
}

// WithProperties returns a copy using any overrides set in props.
func (p *Provisioner) WithProperties(props Properties) *Provisioner {
	cp := *p
	if props.DashboardFile != "" {
		cp.DashboardFile = props.DashboardFile
	}
	if props.TemplateName != "" {
		cp.TemplateName = props.TemplateName
	}
	return &cp
}

// ImportDashboard uploads the saved-object bundle with overwrite=true.
// Exhausting every attempt is an error.
func (p *Provisioner) ImportDashboard(ctx context.Context) (Status, error) {
	logger := log.WithFields(log.Fields{"operation": "import", "file": p.DashboardFile})
	logger.Info("import_data start")

	if _, err := os.Stat(p.DashboardFile); err != nil {
		logger.Error("dashboard definition is missing")
		return Failed, fmt.Errorf("%w: %s", ErrDashboardNotFound, p.DashboardFile)
	}

	policy := p.ImportPolicy
	policy.Notify = notifier(logger, policy.Notify)
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		logger.WithField("attempt", attempt).Info("import attempt")
		body, contentType, err := multipartFile(p.DashboardFile)
		if err != nil {
			return err
		}
		q := url.Values{"overwrite": []string{"true"}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ImportPath+"?"+q.Encode(), body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("osd-xsrf", "true")
		return p.perform(req)
	})
	if err != nil {
		logger.WithError(err).Error("all import requests failed")
		return Failed, fmt.Errorf("import dashboard: %w", err)
	}

	logger.Info("import request successful")
	return Successful, nil
}

// CreateIndexTemplate puts the index template through the console proxy.
// Exhaustion is logged and reported as Failed without an error.
func (p *Provisioner) CreateIndexTemplate(ctx context.Context) (Status, error) {
	logger := log.WithFields(log.Fields{"operation": "index_template", "template": p.TemplateName})
	logger.Info("create_index start")

	doc, err := json.Marshal(IndexTemplate())
	if err != nil {
		return Failed, err
	}
	q := url.Values{
		"path":   []string{"_index_template/" + p.TemplateName},
		"method": []string{http.MethodPut},
	}

	policy := p.TemplatePolicy
	policy.Notify = notifier(logger, policy.Notify)
	err = policy.Do(ctx, func(ctx context.Context, attempt int) error {
		logger.WithField("attempt", attempt).Info("index attempt")
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ConsoleProxyPath+"?"+q.Encode(), bytes.NewReader(doc))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("osd-xsrf", "true")
		return p.perform(req)
	})
	if err != nil {
		logger.WithError(err).Error("all index requests failed")
		return Failed, nil
	}

	logger.Info("index request successful")
	return Successful, nil
}

func IndexTemplate() map[string]interface{} {
	long := map[string]interface{}{"type": "long"}
	return map[string]interface{}{
		"index_patterns": []string{IndexPattern},
		"template": map[string]interface{}{
			"mappings": map[string]interface{}{
				"properties": map[string]interface{}{
					"time": map[string]interface{}{"type": "date"},
					"device": map[string]interface{}{
						"properties": map[string]interface{}{
							"ip": map[string]interface{}{
								"type":             "ip",
								"ignore_malformed": true,
							},
						},
					},
					"activity_id":  long,
					"category_uid": long,
					"class_uid":    long,
					"type_uid":     long,
				},
			},
		},
	}
}

func (p *Provisioner) perform(req *http.Request) error {
	res, err := p.Client.Perform(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		return &ResponseError{StatusCode: res.StatusCode, Body: string(b)}
	}
	return nil
}

func notifier(logger *log.Entry, next func(int, error, time.Duration)) func(int, error, time.Duration) {
	return func(attempt int, err error, wait time.Duration) {
		fields := log.Fields{"attempt": attempt, "wait": wait.String()}
		var rerr *ResponseError
		if errors.As(err, &rerr) {
			fields["status"] = rerr.StatusCode
			fields["response"] = rerr.Body
		}
		logger.WithFields(fields).WithError(err).Warn("request failed")
		if next != nil {
			next(attempt, err, wait)
		}
	}
}

func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrDashboardNotFound, path)
		}
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
