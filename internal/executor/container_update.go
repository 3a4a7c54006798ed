package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"fieldsync/internal/api"
	"fieldsync/internal/logging"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
)

// ContainerUpdate applies edits to an existing container. Only the scalar PUT
// gates the job: removed-image deletion and new-image upload are best-effort
// secondary steps that log warnings instead of failing the row.
type ContainerUpdate struct {
	client *api.Client
	logger *slog.Logger
}

// NewContainerUpdate constructs the container update executor.
func NewContainerUpdate(client *api.Client, logger *slog.Logger) *ContainerUpdate {
	return &ContainerUpdate{
		client: client,
		logger: logging.NewComponentLogger(logger, "executor.container_update"),
	}
}

func (e *ContainerUpdate) Kind() payload.Kind { return payload.KindContainerUpdate }

func (e *ContainerUpdate) Execute(ctx context.Context, job *queue.Job) error {
	decoded, err := job.Decode()
	if err != nil {
		return err
	}
	update, ok := decoded.(payload.ContainerUpdate)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for kind %s", decoded, job.Kind)
	}

	basePath := "/containers/" + url.PathEscape(update.ContainerID)

	// Primary call. Failure here keeps the row queued.
	if err := e.client.DoJSON(ctx, http.MethodPut, basePath, update.Body, nil); err != nil {
		return fmt.Errorf("put container %s: %w", update.ContainerID, err)
	}

	e.deleteRemovedImages(ctx, job, basePath, update)
	e.uploadNewImages(ctx, job, basePath, update)
	return nil
}

func (e *ContainerUpdate) deleteRemovedImages(ctx context.Context, job *queue.Job, basePath string, update payload.ContainerUpdate) {
	for _, removed := range update.RemovedImages {
		if len(removed.IDs) > 0 {
			for _, id := range removed.IDs {
				e.deleteImage(ctx, job, update.ContainerID, basePath+"/images/"+url.PathEscape(id))
			}
			continue
		}
		for _, imageURL := range removed.URLs {
			params := url.Values{"imageUrl": []string{imageURL}}
			e.deleteImage(ctx, job, update.ContainerID, api.QueryPath(basePath+"/images", params))
		}
	}
}

func (e *ContainerUpdate) deleteImage(ctx context.Context, job *queue.Job, containerID, path string) {
	err := e.client.Delete(ctx, path)
	if err == nil {
		return
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		// Already gone remotely; the desired end state holds.
		return
	}
	e.logger.Warn("image deletion failed; remote image remains attached",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldContainerID, containerID),
		logging.String(logging.FieldEventType, "image_delete_failed"),
		logging.Error(err),
	)
}

func (e *ContainerUpdate) uploadNewImages(ctx context.Context, job *queue.Job, basePath string, update payload.ContainerUpdate) {
	local := update.LocalImages()
	if len(local) == 0 {
		return
	}
	files := make([]api.FilePart, 0, len(local))
	for _, img := range local {
		files = append(files, api.FilePart{Field: img.Field, Path: img.Path()})
	}
	if err := e.client.DoMultipart(ctx, http.MethodPost, basePath+"/images", nil, files, nil); err != nil {
		// The scalar update already succeeded and the row will be dequeued:
		// these images are not retried.
		e.logger.Warn("image upload failed; new images were not persisted",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String(logging.FieldContainerID, update.ContainerID),
			logging.Int("images", len(files)),
			logging.String(logging.FieldEventType, "image_upload_failed"),
			logging.Error(err),
		)
	}
}
