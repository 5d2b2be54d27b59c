package dashboards

import (
	"context"
	"fmt"

	"goanalytics/lib/lifecycle"

	"github.com/aws/aws-lambda-go/cfn"
)

const (
	ImportOutputAttribute = "ImportOutputAttribute"
	IndexOutputAttribute  = "IndexOutputAttribute"
)

// Dispatcher provisions on create and update. Deleting the collection
// removes everything this hook created, so delete does nothing.
func (p *Provisioner) Dispatcher() lifecycle.Dispatcher {
	return lifecycle.Dispatcher{
		OnCreate: p.provision,
		OnUpdate: p.provision,
		OnDelete: lifecycle.NoOp,
	}
}

func (p *Provisioner) provision(ctx context.Context, event cfn.Event) (map[string]interface{}, error) {
	props, err := DecodeProperties(event.ResourceProperties)
	if err != nil {
		return nil, fmt.Errorf("decode resource properties: %w", err)
	}
	target := p.WithProperties(props)

	imported, err := target.ImportDashboard(ctx)
	if err != nil {
		return map[string]interface{}{ImportOutputAttribute: string(imported)}, err
	}
	indexed, err := target.CreateIndexTemplate(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		ImportOutputAttribute: string(imported),
		IndexOutputAttribute:  string(indexed),
	}, nil
}
