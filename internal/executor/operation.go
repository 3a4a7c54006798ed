package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"fieldsync/internal/api"
	"fieldsync/internal/logging"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
)

// Operation forwards a stored operation body verbatim to the operations
// endpoint.
type Operation struct {
	client *api.Client
	logger *slog.Logger
}

// NewOperation constructs the generic operation executor.
func NewOperation(client *api.Client, logger *slog.Logger) *Operation {
	return &Operation{
		client: client,
		logger: logging.NewComponentLogger(logger, "executor.operation"),
	}
}

func (e *Operation) Kind() payload.Kind { return payload.KindOperation }

func (e *Operation) Execute(ctx context.Context, job *queue.Job) error {
	decoded, err := job.Decode()
	if err != nil {
		return err
	}
	op, ok := decoded.(payload.Operation)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for kind %s", decoded, job.Kind)
	}

	if err := e.client.DoJSON(ctx, http.MethodPost, "/operations", json.RawMessage(op.Body), nil); err != nil {
		return fmt.Errorf("post operation: %w", err)
	}
	e.logger.Debug("operation applied", logging.Int64(logging.FieldJobID, job.ID))
	return nil
}
