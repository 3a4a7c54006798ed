package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"fieldsync/internal/api"
	"fieldsync/internal/logging"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
)

// ContainerCreate posts a new container to the inspection service, as plain
// JSON when no images were captured and as one multipart request otherwise.
type ContainerCreate struct {
	client *api.Client
	logger *slog.Logger
}

// NewContainerCreate constructs the container creation executor.
func NewContainerCreate(client *api.Client, logger *slog.Logger) *ContainerCreate {
	return &ContainerCreate{
		client: client,
		logger: logging.NewComponentLogger(logger, "executor.container_create"),
	}
}

func (e *ContainerCreate) Kind() payload.Kind { return payload.KindContainerCreate }

func (e *ContainerCreate) Execute(ctx context.Context, job *queue.Job) error {
	decoded, err := job.Decode()
	if err != nil {
		return err
	}
	create, ok := decoded.(payload.ContainerCreate)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for kind %s", decoded, job.Kind)
	}

	var out struct {
		ID any `json:"id"`
	}

	if len(create.Images) == 0 {
		if err := e.client.DoJSON(ctx, http.MethodPost, "/containers", create.Body, &out); err != nil {
			return fmt.Errorf("post container: %w", err)
		}
	} else {
		files := make([]api.FilePart, 0, len(create.Images))
		for _, img := range create.Images {
			files = append(files, api.FilePart{Field: img.Field, Path: img.Path()})
		}
		if err := e.client.DoMultipart(ctx, http.MethodPost, "/containers/images", formFields(create.Body), files, &out); err != nil {
			return fmt.Errorf("post container with images: %w", err)
		}
	}

	// The remote id only feeds local cache refresh; the queue does not need it.
	if out.ID != nil {
		e.logger.Info("container created",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String(logging.FieldContainerID, fmt.Sprint(out.ID)),
			logging.Int("images", len(create.Images)),
		)
	}
	return nil
}
