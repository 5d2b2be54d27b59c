// Package lifecycle dispatches CloudFormation custom resource requests by kind.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type RequestKind int

const (
	Create RequestKind = iota + 1
	Update
	Delete
)

func (k RequestKind) String() string {
	switch k {
	case Create:
		return string(cfn.RequestCreate)
	case Update:
		return string(cfn.RequestUpdate)
	case Delete:
		return string(cfn.RequestDelete)
	}
	return fmt.Sprintf("RequestKind(%d)", int(k))
}

func ParseKind(t cfn.RequestType) (RequestKind, error) {
	switch t {
	case cfn.RequestCreate:
		return Create, nil
	case cfn.RequestUpdate:
		return Update, nil
	case cfn.RequestDelete:
		return Delete, nil
	}
	return 0, fmt.Errorf("unsupported request type %q", t)
}

// Action handles one kind of request. The returned map becomes the
// resource's output attributes.
type Action func(ctx context.Context, event cfn.Event) (map[string]interface{}, error)

// NoOp succeeds without side effects.
func NoOp(ctx context.Context, event cfn.Event) (map[string]interface{}, error) {
	return nil, nil
}

// DefaultReportMargin is kept free before the invocation deadline so the
// response can still reach the stack.
const DefaultReportMargin = 3 * time.Second

type Dispatcher struct {
	OnCreate Action
	OnUpdate Action
	OnDelete Action
	// ReportMargin overrides DefaultReportMargin when set.
	ReportMargin time.Duration
}

// Handle satisfies cfn.CustomResourceFunction. Wrap it with cfn.LambdaWrap
// to report the result to the stack.
func (d Dispatcher) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	kind, err := ParseKind(event.RequestType)
	if err != nil {
		return event.PhysicalResourceID, nil, err
	}

	ctx, cancel := d.reserve(ctx)
	defer cancel()

	physicalID := PhysicalResourceID(kind, event)
	logger := log.WithFields(log.Fields{
		"requestType":        kind.String(),
		"requestId":          event.RequestID,
		"logicalResourceId":  event.LogicalResourceID,
		"physicalResourceId": physicalID,
	})
	logger.Info("received lifecycle request")

	var action Action
	switch kind {
	case Create:
		action = d.OnCreate
	case Update:
		action = d.OnUpdate
	case Delete:
		action = d.OnDelete
	}
	if action == nil {
		action = NoOp
	}

	data, err := action(ctx, event)
	if err != nil {
		logger.WithError(err).Error("lifecycle request failed")
		return physicalID, data, err
	}
	logger.WithField("data", data).Info("lifecycle request complete")
	return physicalID, data, nil
}

// reserve ends the actions' context ReportMargin before the invocation
// deadline. Without a deadline the context is left as is.
func (d Dispatcher) reserve(ctx context.Context) (context.Context, context.CancelFunc) {
	dl, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	margin := d.ReportMargin
	if margin <= 0 {
		margin = DefaultReportMargin
	}
	return context.WithDeadline(ctx, dl.Add(-margin))
}

// PhysicalResourceID keeps the id the stack already knows. A create without
// one gets a fresh id so a later update is not seen as a replacement.
func PhysicalResourceID(kind RequestKind, event cfn.Event) string {
	if event.PhysicalResourceID != "" {
		return event.PhysicalResourceID
	}
	if kind == Create {
		return fmt.Sprintf("%s-%s", event.LogicalResourceID, uuid.New().String())
	}
	return ""
}
