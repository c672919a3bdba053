// Package files manages each user's documents under users/<uid>/ in the
// object store.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"resume-portal/internal/extract"
	"resume-portal/internal/shared/storage/object"
	"resume-portal/internal/shared/util"
)

// ResumeExtension selects the files offered to the processor.
const ResumeExtension = ".pdf"

// NoFilesMessage is shown when the namespace is empty.
const NoFilesMessage = "No files uploaded yet."

// DefaultMaxUploadBytes caps a single upload.
const DefaultMaxUploadBytes = 20 << 20

var (
	ErrEmptyFile   = errors.New("file is empty")
	ErrTooLarge    = errors.New("file exceeds the upload limit")
	ErrOutsideUser = errors.New("path is outside the user's namespace")
)

// Entry is one stored file as shown in the dashboard.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"sizeBytes"`
	Pages      int       `json:"pages,omitempty"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// StorageError wraps object-store failures.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Service lists, uploads and deletes files for a user.
type Service struct {
	Store          object.Store
	MaxUploadBytes int64

	mu    sync.Mutex
	pages map[string]pageInfo
}

type pageInfo struct {
	size  int64
	pages int
}

// NewService wraps store.
func NewService(store object.Store) *Service {
	return &Service{Store: store, MaxUploadBytes: DefaultMaxUploadBytes}
}

// Namespace is the key prefix owned by userID.
func Namespace(userID string) string {
	return "users/" + userID + "/"
}

// List returns the user's files sorted by name, each with a download URL.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	prefix := Namespace(userID)
	infos, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, &StorageError{Op: "list", Path: prefix, Err: err}
	}
	out := make([]Entry, 0, len(infos))
	for _, info := range infos {
		u, err := s.Store.URL(ctx, info.Key)
		if err != nil {
			return nil, &StorageError{Op: "resolve", Path: info.Key, Err: err}
		}
		out = append(out, Entry{
			Name:       info.Name,
			Path:       info.Key,
			URL:        u,
			SizeBytes:  info.SizeBytes,
			Pages:      s.cachedPages(info.Key, info.SizeBytes),
			ModifiedAt: info.ModifiedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Upload writes r under the user's namespace keyed by name, replacing any
// file of the same name.
func (s *Service) Upload(ctx context.Context, userID, name string, r io.Reader) (Entry, error) {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return Entry{}, &StorageError{Op: "upload", Path: name, Err: err}
	}
	key := Namespace(userID) + clean

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Entry{}, &StorageError{Op: "upload", Path: key, Err: err}
	}
	if len(data) == 0 {
		return Entry{}, &StorageError{Op: "upload", Path: key, Err: ErrEmptyFile}
	}
	if int64(len(data)) > limit {
		return Entry{}, &StorageError{Op: "upload", Path: key, Err: ErrTooLarge}
	}

	meta := extract.Inspect(data, clean)
	size, err := s.Store.Put(ctx, key, meta.ContentType, bytes.NewReader(data))
	if err != nil {
		return Entry{}, &StorageError{Op: "upload", Path: key, Err: err}
	}
	s.rememberPages(key, size, meta.Pages)

	u, err := s.Store.URL(ctx, key)
	if err != nil {
		return Entry{}, &StorageError{Op: "resolve", Path: key, Err: err}
	}
	return Entry{
		Name:       clean,
		Path:       key,
		URL:        u,
		SizeBytes:  size,
		Pages:      meta.Pages,
		ModifiedAt: time.Now().UTC(),
	}, nil
}

// Delete removes path, which must lie in the user's namespace.
func (s *Service) Delete(ctx context.Context, userID, path string) error {
	if !strings.HasPrefix(path, Namespace(userID)) || strings.Contains(path, "..") {
		return &StorageError{Op: "delete", Path: path, Err: ErrOutsideUser}
	}
	if err := s.Store.Delete(ctx, path); err != nil {
		return &StorageError{Op: "delete", Path: path, Err: err}
	}
	s.mu.Lock()
	delete(s.pages, path)
	s.mu.Unlock()
	return nil
}

// ResumeCandidates keeps entries whose name ends in ResumeExtension, ignoring case.
func ResumeCandidates(entries []Entry) []Entry {
	out := []Entry{}
	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e.Name), ResumeExtension) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) rememberPages(key string, size int64, pages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages == nil {
		s.pages = make(map[string]pageInfo)
	}
	if pages <= 0 {
		delete(s.pages, key)
		return
	}
	s.pages[key] = pageInfo{size: size, pages: pages}
}

// cachedPages returns the page count seen at upload time, provided the
// object has not been replaced by a file of a different size since.
func (s *Service) cachedPages(key string, size int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.pages[key]
	if !ok || info.size != size {
		return 0
	}
	return info.pages
}
