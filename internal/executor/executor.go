package executor

import (
	"context"
	"log/slog"

	"fieldsync/internal/api"
	"fieldsync/internal/payload"
	"fieldsync/internal/queue"
)

// Executor translates one queued job's payload into remote calls. An error
// from Execute means the job's primary effect did not take place and the row
// must stay queued.
type Executor interface {
	Kind() payload.Kind
	Execute(ctx context.Context, job *queue.Job) error
}

// Registry builds the executor set for every known job kind.
func Registry(client *api.Client, logger *slog.Logger) map[payload.Kind]Executor {
	executors := []Executor{
		NewOperation(client, logger),
		NewContainerCreate(client, logger),
		NewContainerUpdate(client, logger),
	}
	registry := make(map[payload.Kind]Executor, len(executors))
	for _, exec := range executors {
		registry[exec.Kind()] = exec
	}
	return registry
}
