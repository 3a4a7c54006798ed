package payload_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"fieldsync/internal/payload"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	update := payload.ContainerUpdate{
		ContainerID: "c-17",
		Body:        map[string]any{"sealNumber": "XY-100", "damaged": true},
		Images: []payload.ImageRef{
			{URI: "file:///tmp/shot1.jpg", Field: "photoFront"},
			{URI: "https://cdn.example.com/imgs/9.jpg", Field: "photoRear"},
		},
		RemovedImages: []payload.RemovedImage{
			{Category: "photoSide", IDs: []string{"42"}, URLs: []string{"https://cdn.example.com/imgs/42.jpg"}},
		},
	}

	raw, err := payload.Encode(update)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := payload.Decode(payload.KindContainerUpdate, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.(payload.ContainerUpdate)
	if !ok {
		t.Fatalf("expected ContainerUpdate, got %T", decoded)
	}
	if got.ContainerID != "c-17" {
		t.Fatalf("unexpected container id %q", got.ContainerID)
	}
	if len(got.Images) != 2 || len(got.RemovedImages) != 1 {
		t.Fatalf("round trip lost data: %#v", got)
	}
	if got.Body["sealNumber"] != "XY-100" {
		t.Fatalf("unexpected body: %#v", got.Body)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := payload.Decode(payload.Kind("container-destroy"), "{}")
	if !errors.Is(err, payload.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := payload.Decode(payload.KindContainerCreate, "{not json")
	if !errors.Is(err, payload.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDecodeValidatesShape(t *testing.T) {
	cases := []struct {
		name string
		kind payload.Kind
		raw  string
	}{
		{"operation empty body", payload.KindOperation, `{}`},
		{"create empty body", payload.KindContainerCreate, `{"body":{}}`},
		{"create image missing field", payload.KindContainerCreate, `{"body":{"a":1},"images":[{"uri":"file:///x.jpg"}]}`},
		{"update missing container id", payload.KindContainerUpdate, `{"body":{"a":1}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := payload.Decode(tc.kind, tc.raw); !errors.Is(err, payload.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestOperationSummaryExtractsContainerID(t *testing.T) {
	op := payload.Operation{Body: json.RawMessage(`{"containerId":"c-9","action":"reseal"}`)}
	raw, err := payload.Encode(op)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := payload.Decode(payload.KindOperation, raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	summary := decoded.Summary()
	if summary.ContainerID != "c-9" {
		t.Fatalf("expected container id from body, got %q", summary.ContainerID)
	}
	if summary.Label != "Operation" {
		t.Fatalf("unexpected label %q", summary.Label)
	}
}

func TestSummaryLabels(t *testing.T) {
	create := payload.ContainerCreate{Body: map[string]any{"a": 1}}
	if got := create.Summary().Label; got != "Container Create" {
		t.Fatalf("unexpected label %q", got)
	}
	update := payload.ContainerUpdate{ContainerID: "c-1", Body: map[string]any{"a": 1}}
	if got := update.Summary().Label; got != "Container Update" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestImageRefLocality(t *testing.T) {
	local := payload.ImageRef{URI: "file:///data/cap/1.jpg", Field: "photo"}
	if !local.Local() {
		t.Fatal("file scheme should be local")
	}
	if local.Path() != "/data/cap/1.jpg" {
		t.Fatalf("unexpected path %q", local.Path())
	}
	bare := payload.ImageRef{URI: "/data/cap/2.jpg", Field: "photo"}
	if !bare.Local() {
		t.Fatal("bare path should be local")
	}
	remote := payload.ImageRef{URI: "https://cdn.example.com/1.jpg", Field: "photo"}
	if remote.Local() {
		t.Fatal("https scheme should be remote")
	}
}

func TestLocalImagesFilters(t *testing.T) {
	update := payload.ContainerUpdate{
		ContainerID: "c-3",
		Body:        map[string]any{"a": 1},
		Images: []payload.ImageRef{
			{URI: "file:///a.jpg", Field: "f1"},
			{URI: "https://cdn.example.com/b.jpg", Field: "f2"},
			{URI: "/c.jpg", Field: "f3"},
		},
	}
	local := update.LocalImages()
	if len(local) != 2 {
		t.Fatalf("expected 2 local images, got %d", len(local))
	}
	for _, img := range local {
		if strings.HasPrefix(img.URI, "https://") {
			t.Fatalf("remote image leaked into local set: %q", img.URI)
		}
	}
}
