package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultDatabase      = "appfabricdataanalyticsdb"
	DefaultDashboardFile = "dashboard.ndjson"
)

type ViewConfig struct {
	Table     string `env:"ATHENA_TABLE" validate:"required"`
	OutputUri string `env:"ATHENA_OUTPUT_URI" validate:"required"`
	Region    string `env:"REGION" validate:"required"`
	Database  string `env:"ATHENA_DATABASE" validate:"required"`
	WorkGroup string `env:"ATHENA_WORKGROUP"`
}

type SearchConfig struct {
	Endpoint      string `env:"OSS_ENDPOINT" validate:"required,url"`
	Region        string `env:"AWS_REGION" validate:"required"`
	DashboardFile string `env:"DASHBOARD_FILE" validate:"required"`
	LangOption    string `env:"LANG_OPTION"`
}

type CrawlerConfig struct {
	CrawlerName string `env:"CRAWLER_NAME" validate:"required"`
	Region      string `env:"REGION"`
}

// ErrInvalid marks a missing or malformed environment value.
var ErrInvalid = errors.New("invalid configuration")

// Lookup resolves a variable name. os.Getenv in production, a map in tests.
type Lookup func(key string) string

var validate = validator.New()

// LoadDotEnv reads a local .env when one exists. Lambda never ships one.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func LoadViewConfig(lookup Lookup) (ViewConfig, error) {
	c := ViewConfig{
		Table:     lookup("ATHENA_TABLE"),
		OutputUri: lookup("ATHENA_OUTPUT_URI"),
		Region:    lookup("REGION"),
		Database:  withDefault(lookup("ATHENA_DATABASE"), DefaultDatabase),
		WorkGroup: lookup("ATHENA_WORKGROUP"),
	}
	return c, check(c)
}

func LoadSearchConfig(lookup Lookup) (SearchConfig, error) {
	c := SearchConfig{
		Endpoint:      strings.TrimRight(lookup("OSS_ENDPOINT"), "/"),
		Region:        lookup("AWS_REGION"),
		DashboardFile: withDefault(lookup("DASHBOARD_FILE"), DefaultDashboardFile),
		LangOption:    lookup("LANG_OPTION"),
	}
	return c, check(c)
}

func LoadCrawlerConfig(lookup Lookup) (CrawlerConfig, error) {
	c := CrawlerConfig{
		CrawlerName: lookup("CRAWLER_NAME"),
		Region:      lookup("REGION"),
	}
	return c, check(c)
}

// Env is the Lookup backed by the process environment.
func Env() Lookup {
	return os.Getenv
}

func withDefault(v string, def string) string {
	if v == "" {
		return def
	}
	return v
}

// check reports every failing field by its environment variable name.
func check(c interface{}) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", envName(c, fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ", "))
}

func envName(c interface{}, field string) string {
	f, ok := reflect.TypeOf(c).FieldByName(field)
	if !ok {
		return field
	}
	if name := f.Tag.Get("env"); name != "" {
		return name
	}
	return field
}
