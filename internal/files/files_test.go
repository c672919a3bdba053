package files

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"resume-portal/internal/shared/storage/object"
	"resume-portal/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(local.New(t.TempDir(), "http://localhost:8080/objects"))
}

func TestUploadOverwritesByName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Upload(ctx, "u1", "x.pdf", strings.NewReader("one")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	entry, err := svc.Upload(ctx, "u1", "x.pdf", strings.NewReader("second"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if entry.Path != "users/u1/x.pdf" {
		t.Fatalf("unexpected path %q", entry.Path)
	}

	entries, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "x.pdf" || entries[0].SizeBytes != 6 {
		t.Fatalf("expected one overwritten entry, got %+v", entries)
	}
	if entries[0].URL != "http://localhost:8080/objects/users/u1/x.pdf" {
		t.Fatalf("unexpected url %q", entries[0].URL)
	}
}

func TestListIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, _ = svc.Upload(ctx, "u1", "a.pdf", strings.NewReader("a"))
	_, _ = svc.Upload(ctx, "u2", "b.pdf", strings.NewReader("b"))

	entries, err := svc.List(ctx, "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "b.pdf" {
		t.Fatalf("expected only u2 files, got %+v", entries)
	}

	empty, err := svc.List(ctx, "u3")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %+v err=%v", empty, err)
	}
}

func TestUploadRejectsEmptyAndOversized(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	svc.MaxUploadBytes = 4

	if _, err := svc.Upload(ctx, "u1", "x.pdf", strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := svc.Upload(ctx, "u1", "x.pdf", strings.NewReader("12345")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestDeleteStaysInNamespace(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	_, _ = svc.Upload(ctx, "u1", "x.pdf", strings.NewReader("x"))

	err := svc.Delete(ctx, "u2", "users/u1/x.pdf")
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || !errors.Is(err, ErrOutsideUser) {
		t.Fatalf("expected ErrOutsideUser, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", "users/u1/x.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", "users/u1/x.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestResumeCandidatesIgnoresCase(t *testing.T) {
	entries := []Entry{{Name: "a.pdf"}, {Name: "B.PDF"}, {Name: "c.docx"}, {Name: "pdf"}}
	got := ResumeCandidates(entries)
	if len(got) != 2 || got[0].Name != "a.pdf" || got[1].Name != "B.PDF" {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

type failingStore struct{ object.Store }

func (failingStore) List(context.Context, string) ([]object.Info, error) {
	return nil, errors.New("bucket unavailable")
}

func (failingStore) Put(context.Context, string, string, io.Reader) (int64, error) {
	return 0, errors.New("quota exceeded")
}

func TestStoreFailuresAreStorageErrors(t *testing.T) {
	svc := NewService(failingStore{})
	var storageErr *StorageError
	if _, err := svc.List(context.Background(), "u1"); !errors.As(err, &storageErr) || storageErr.Op != "list" {
		t.Fatalf("expected list StorageError, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "u1", "x.pdf", strings.NewReader("x")); !errors.As(err, &storageErr) || storageErr.Op != "upload" {
		t.Fatalf("expected upload StorageError, got %v", err)
	}
}
