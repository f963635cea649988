package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/common"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.objects[aws.ToString(in.Key)]))}, nil
}

func TestKeys(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := SnapshotKey("abc", at); got != "sessions/abc/graph-20260304T050607Z.json" {
		t.Fatalf("unexpected snapshot key %q", got)
	}
	e := workflow.Event{ID: "e1", SessionID: "abc", Time: at}
	if got := EventKey(e); got != "events/abc/20260304T050607Z-e1.json" {
		t.Fatalf("unexpected event key %q", got)
	}
}

func TestExportSnapshot(t *testing.T) {
	t.Setenv("AWS_BUCKET", "exports")
	objects := newFakeObjects()
	snap := common.Snapshot{
		Nodes: []common.Node{{ID: "company:acme", Type: common.NodeCompany, Name: "Acme", Role: common.RoleSelf}},
	}

	key, err := ExportSnapshot(context.Background(), objects, "abc", snap)
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}
	if !strings.HasPrefix(key, "sessions/abc/graph-") {
		t.Fatalf("unexpected key %q", key)
	}
	if objects.types[key] != "application/json" {
		t.Fatalf("unexpected content type %q", objects.types[key])
	}

	data, err := GetFile(context.Background(), objects, key)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	var got common.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].Name != "Acme" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestArchiveEvent(t *testing.T) {
	objects := newFakeObjects()
	e := workflow.Event{ID: "e1", SessionID: "abc", Type: workflow.EventSessionReset, Time: time.Now()}
	if err := ArchiveEvent(context.Background(), objects, e); err != nil {
		t.Fatalf("ArchiveEvent: %v", err)
	}
	if _, ok := objects.objects[EventKey(e)]; !ok {
		t.Fatalf("event not archived under %s", EventKey(e))
	}
}
