package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the shape of a queued job payload and the executor that
// handles it.
type Kind string

const (
	KindOperation       Kind = "operation"
	KindContainerCreate Kind = "container-create"
	KindContainerUpdate Kind = "container-update"
)

// ErrInvalid marks payloads that fail structural validation at decode time.
var ErrInvalid = errors.New("invalid payload")

var knownKinds = map[Kind]struct{}{
	KindOperation:       {},
	KindContainerCreate: {},
	KindContainerUpdate: {},
}

// Known reports whether kind names a payload shape this package can decode.
func Known(kind Kind) bool {
	_, ok := knownKinds[kind]
	return ok
}

// Payload is the decoded form of one queued job body.
type Payload interface {
	Kind() Kind
	// Summary projects the payload into the fields shown in pending lists.
	Summary() Summary
	validate() error
}

// Summary is the human-facing projection of a payload.
type Summary struct {
	Label       string
	ContainerID string
}

// ImageRef references one captured image and the multipart field it uploads
// under.
type ImageRef struct {
	URI   string `json:"uri"`
	Field string `json:"field"`
}

// Local reports whether the reference points at a device-local file that has
// not been uploaded yet. Network URLs identify images already persisted
// remotely.
func (r ImageRef) Local() bool {
	uri := strings.TrimSpace(r.URI)
	return !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://")
}

// Path returns the filesystem path for a local reference.
func (r ImageRef) Path() string {
	return strings.TrimPrefix(strings.TrimSpace(r.URI), "file://")
}

// RemovedImage describes remote images detached from a container during an
// edit. Deletion is attempted by ID first, by URL as a fallback.
type RemovedImage struct {
	Category string   `json:"category"`
	IDs      []string `json:"ids"`
	URLs     []string `json:"urls"`
}

// Operation is an arbitrary mutation forwarded verbatim to the operations
// endpoint.
type Operation struct {
	Body json.RawMessage `json:"body"`

	containerID string
}

func (Operation) Kind() Kind { return KindOperation }

func (o Operation) Summary() Summary {
	return Summary{Label: labelFor(KindOperation), ContainerID: o.containerID}
}

func (o Operation) validate() error {
	if len(o.Body) == 0 {
		return fmt.Errorf("%w: operation body is required", ErrInvalid)
	}
	if !json.Valid(o.Body) {
		return fmt.Errorf("%w: operation body is not valid JSON", ErrInvalid)
	}
	return nil
}

// ContainerCreate captures a new container's scalar fields plus any images
// taken while offline.
type ContainerCreate struct {
	Body   map[string]any `json:"body"`
	Images []ImageRef     `json:"images,omitempty"`
}

func (ContainerCreate) Kind() Kind { return KindContainerCreate }

func (c ContainerCreate) Summary() Summary {
	return Summary{Label: labelFor(KindContainerCreate)}
}

func (c ContainerCreate) validate() error {
	if len(c.Body) == 0 {
		return fmt.Errorf("%w: container body is required", ErrInvalid)
	}
	for i, img := range c.Images {
		if strings.TrimSpace(img.URI) == "" {
			return fmt.Errorf("%w: image %d is missing a uri", ErrInvalid, i)
		}
		if strings.TrimSpace(img.Field) == "" {
			return fmt.Errorf("%w: image %d is missing a field name", ErrInvalid, i)
		}
	}
	return nil
}

// ContainerUpdate captures edits to an existing container: scalar fields, new
// local images to upload, and remote images removed during the edit.
type ContainerUpdate struct {
	ContainerID   string         `json:"containerId"`
	Body          map[string]any `json:"body"`
	Images        []ImageRef     `json:"images,omitempty"`
	RemovedImages []RemovedImage `json:"removedImages,omitempty"`
}

func (ContainerUpdate) Kind() Kind { return KindContainerUpdate }

func (u ContainerUpdate) Summary() Summary {
	return Summary{Label: labelFor(KindContainerUpdate), ContainerID: u.ContainerID}
}

func (u ContainerUpdate) validate() error {
	if strings.TrimSpace(u.ContainerID) == "" {
		return fmt.Errorf("%w: container id is required", ErrInvalid)
	}
	if len(u.Body) == 0 {
		return fmt.Errorf("%w: container body is required", ErrInvalid)
	}
	for i, img := range u.Images {
		if strings.TrimSpace(img.URI) == "" {
			return fmt.Errorf("%w: image %d is missing a uri", ErrInvalid, i)
		}
		if strings.TrimSpace(img.Field) == "" {
			return fmt.Errorf("%w: image %d is missing a field name", ErrInvalid, i)
		}
	}
	return nil
}

// LocalImages returns the subset of references that still need uploading.
func (u ContainerUpdate) LocalImages() []ImageRef {
	var local []ImageRef
	for _, img := range u.Images {
		if img.Local() {
			local = append(local, img)
		}
	}
	return local
}

// Encode serializes a payload for storage after validating it.
func Encode(p Payload) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: payload is nil", ErrInvalid)
	}
	if err := p.validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// Decode parses and validates a stored payload for the given kind. Rows that
// fail here are surfaced as failed jobs rather than dispatched.
func Decode(kind Kind, raw string) (Payload, error) {
	switch kind {
	case KindOperation:
		var op Operation
		if err := json.Unmarshal([]byte(raw), &op); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := op.validate(); err != nil {
			return nil, err
		}
		op.containerID = extractContainerID(op.Body)
		return op, nil
	case KindContainerCreate:
		var create ContainerCreate
		if err := json.Unmarshal([]byte(raw), &create); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := create.validate(); err != nil {
			return nil, err
		}
		return create, nil
	case KindContainerUpdate:
		var update ContainerUpdate
		if err := json.Unmarshal([]byte(raw), &update); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := update.validate(); err != nil {
			return nil, err
		}
		return update, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalid, kind)
	}
}

func extractContainerID(body json.RawMessage) string {
	var fields struct {
		ContainerID string `json:"containerId"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	return strings.TrimSpace(fields.ContainerID)
}
