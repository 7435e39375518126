package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// fakeNotifier captures publish calls and can be scripted to fail per event.
type fakeNotifier struct {
	mu       sync.Mutex
	calls    []string
	payloads []map[string]any
	failOn   map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failOn: make(map[string]error)}
}

func (f *fakeNotifier) record(name string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.payloads = append(f.payloads, payload)
	return f.failOn[name]
}

func (f *fakeNotifier) PublishProjectCreated(_ context.Context, p map[string]any, _ string) error {
	return f.record("created", p)
}
func (f *fakeNotifier) PublishProjectUpdated(_ context.Context, p map[string]any, _ string) error {
	return f.record("updated", p)
}
func (f *fakeNotifier) PublishProjectArchived(_ context.Context, p map[string]any, _ string) error {
	return f.record("archived", p)
}
func (f *fakeNotifier) PublishProjectDeleted(_ context.Context, p map[string]any, _ string) error {
	return f.record("deleted", p)
}
func (f *fakeNotifier) PublishProjectFilesUpdated(_ context.Context, p map[string]any, _ string) error {
	return f.record("files_updated", p)
}

func (f *fakeNotifier) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeNotifier) lastPayload() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return nil
	}
	return f.payloads[len(f.payloads)-1]
}

func TestService_Create(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	p, err := svc.Create(context.Background(), &CreateRequest{ID: "p1", Name: "Demo"}, "corr-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID != "p1" || p.Name != "Demo" {
		t.Errorf("unexpected project: %+v", p)
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	calls := fn.callNames()
	if len(calls) != 1 || calls[0] != "created" {
		t.Errorf("expected one created event, got %v", calls)
	}
	if fn.lastPayload()["projectId"] != "p1" {
		t.Errorf("expected payload projectId p1, got %v", fn.lastPayload())
	}
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	tests := []struct {
		name string
		req  *CreateRequest
	}{
		{"missing id", &CreateRequest{Name: "Demo"}},
		{"missing name", &CreateRequest{ID: "p1"}},
		{"id too long", &CreateRequest{ID: strings.Repeat("a", 129), Name: "Demo"}},
		{"id starts with hyphen", &CreateRequest{ID: "-p1", Name: "Demo"}},
		{"id with spaces", &CreateRequest{ID: "p 1", Name: "Demo"}},
		{"name too long", &CreateRequest{ID: "p1", Name: strings.Repeat("a", 257)}},
		{"description too long", &CreateRequest{ID: "p1", Name: "Demo", Description: strings.Repeat("a", 4097)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.req, ""); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if len(fn.callNames()) != 0 {
		t.Errorf("expected no events for invalid requests, got %v", fn.callNames())
	}
}

func TestService_CreateConflict(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	if _, err := svc.Create(context.Background(), &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), &CreateRequest{ID: "p1", Name: "Other"}, ""); err == nil {
		t.Error("expected conflict on duplicate ID")
	}
}

func TestService_CreateRollsBackOnNotificationFailure(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	fn.failOn["created"] = errors.New("delivery exhausted")
	svc := NewService(fn, nil)

	_, err := svc.Create(context.Background(), &CreateRequest{ID: "p1", Name: "Demo"}, "")
	if err == nil {
		t.Fatal("expected error when critical notification fails")
	}

	// Creation rolled back; the project must not exist
	if _, err := svc.Get(context.Background(), "p1"); err == nil {
		t.Error("expected project to be rolled back")
	}
}

func TestService_GetAndList(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	for _, id := range []string{"p3", "p1", "p2"} {
		if _, err := svc.Create(ctx, &CreateRequest{ID: id, Name: "Demo " + id}, ""); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}

	p, err := svc.Get(ctx, "p2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name != "Demo p2" {
		t.Errorf("unexpected project name %q", p.Name)
	}

	if _, err := svc.Get(ctx, "missing"); err == nil {
		t.Error("expected not-found error")
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list.Projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(list.Projects))
	}
	// Ordered by ID
	for i, want := range []string{"p1", "p2", "p3"} {
		if list.Projects[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, list.Projects[i].ID)
		}
	}
}

func TestService_Update(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newName := "Renamed"
	p, err := svc.Update(ctx, "p1", &UpdateRequest{Name: &newName}, "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if p.Name != "Renamed" {
		t.Errorf("expected renamed project, got %q", p.Name)
	}

	calls := fn.callNames()
	if calls[len(calls)-1] != "updated" {
		t.Errorf("expected updated event, got %v", calls)
	}
}

func TestService_UpdateSticksWhenNotificationFails(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	fn.failOn["updated"] = errors.New("receiver down")
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newName := "Renamed"
	p, err := svc.Update(ctx, "p1", &UpdateRequest{Name: &newName}, "")
	if err != nil {
		t.Fatalf("expected update to succeed despite notification failure, got %v", err)
	}
	if p.Name != "Renamed" {
		t.Errorf("expected local change to stick, got %q", p.Name)
	}

	got, _ := svc.Get(ctx, "p1")
	if got.Name != "Renamed" {
		t.Errorf("expected stored change to stick, got %q", got.Name)
	}
}

func TestService_Archive(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	p, err := svc.Archive(ctx, "p1", "")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if !p.Archived {
		t.Error("expected project to be archived")
	}

	// Double archive conflicts
	if _, err := svc.Archive(ctx, "p1", ""); err == nil {
		t.Error("expected conflict on double archive")
	}
}

func TestService_UpdateFiles(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	files := []GeneratedFile{
		{Path: "main.go", SHA256: "abc", SizeBytes: 120},
		{Path: "go.mod", SizeBytes: 40},
	}
	p, err := svc.UpdateFiles(ctx, "p1", &FilesRequest{Files: files}, "")
	if err != nil {
		t.Fatalf("UpdateFiles failed: %v", err)
	}
	if len(p.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(p.Files))
	}
	if fn.lastPayload()["fileCount"] != 2 {
		t.Errorf("expected fileCount 2 in payload, got %v", fn.lastPayload()["fileCount"])
	}
}

func TestService_UpdateFilesRollsBackOnNotificationFailure(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.UpdateFiles(ctx, "p1", &FilesRequest{Files: []GeneratedFile{{Path: "v1.go"}}}, ""); err != nil {
		t.Fatalf("initial UpdateFiles failed: %v", err)
	}

	fn.failOn["files_updated"] = errors.New("delivery exhausted")
	_, err := svc.UpdateFiles(ctx, "p1", &FilesRequest{Files: []GeneratedFile{{Path: "v2.go"}}}, "")
	if err == nil {
		t.Fatal("expected error when critical notification fails")
	}

	// Previous file set restored
	got, _ := svc.Get(ctx, "p1")
	if len(got.Files) != 1 || got.Files[0].Path != "v1.go" {
		t.Errorf("expected previous file set restored, got %+v", got.Files)
	}
}

func TestService_UpdateFilesValidation(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.UpdateFiles(ctx, "p1", &FilesRequest{Files: []GeneratedFile{{Path: ""}}}, ""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := svc.UpdateFiles(ctx, "p1", &FilesRequest{Files: []GeneratedFile{{Path: "a.go", SizeBytes: -1}}}, ""); err == nil {
		t.Error("expected error for negative size")
	}
}

func TestService_Delete(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, "p1", ""); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, "p1"); err == nil {
		t.Error("expected project to be gone")
	}
	if err := svc.Delete(ctx, "p1", ""); err == nil {
		t.Error("expected not-found on double delete")
	}
}

func TestService_GetReturnsCopy(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo", Tags: map[string]string{"env": "dev"}}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.UpdateFiles(ctx, "p1", &FilesRequest{Files: []GeneratedFile{{Path: "main.go"}}}, ""); err != nil {
		t.Fatalf("UpdateFiles failed: %v", err)
	}

	got, err := svc.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Mutating the returned value must not leak into the store
	got.Name = "mutated"
	got.Tags["env"] = "mutated"
	got.Files[0].Path = "mutated.go"

	fresh, _ := svc.Get(ctx, "p1")
	if fresh.Name != "Demo" {
		t.Errorf("expected stored name unchanged, got %q", fresh.Name)
	}
	if fresh.Tags["env"] != "dev" {
		t.Errorf("expected stored tag unchanged, got %q", fresh.Tags["env"])
	}
	if fresh.Files[0].Path != "main.go" {
		t.Errorf("expected stored file path unchanged, got %q", fresh.Files[0].Path)
	}
}

func TestService_ListReturnsCopies(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	list.Projects[0].Name = "mutated"

	fresh, _ := svc.Get(ctx, "p1")
	if fresh.Name != "Demo" {
		t.Errorf("expected stored name unchanged, got %q", fresh.Name)
	}
}

// Concurrent reads of a returned project must never observe in-place writes
// from later mutations; the race detector fails this test if they do.
func TestService_ConcurrentUpdateAndGet(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const iterations = 200
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			name := fmt.Sprintf("name-%d", i)
			if _, err := svc.Update(ctx, "p1", &UpdateRequest{Name: &name}, ""); err != nil {
				t.Errorf("Update failed: %v", err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			p, err := svc.Get(ctx, "p1")
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			if _, err := json.Marshal(p); err != nil {
				t.Errorf("Marshal failed: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}

func TestService_DeleteReinstatesOnNotificationFailure(t *testing.T) {
	t.Parallel()
	fn := newFakeNotifier()
	fn.failOn["deleted"] = errors.New("delivery exhausted")
	svc := NewService(fn, nil)

	ctx := context.Background()
	if _, err := svc.Create(ctx, &CreateRequest{ID: "p1", Name: "Demo"}, ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, "p1", ""); err == nil {
		t.Fatal("expected error when critical notification fails")
	}

	// Project reinstated
	if _, err := svc.Get(ctx, "p1"); err != nil {
		t.Errorf("expected project to be reinstated, got %v", err)
	}
}
