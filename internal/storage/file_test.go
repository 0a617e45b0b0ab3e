package storage

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/notenest/internal/checksum"
	"github.com/starford/notenest/internal/models"
)

type doc struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func sampleEntries(t *testing.T) []models.Entry {
	t.Helper()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	link, err := url.Parse("https://example.com/a?b=c")
	if err != nil {
		t.Fatal(err)
	}
	withURL := models.NewEntry("With URL", "body", link, []string{"go", "notes"})
	withURL.CreationDate, withURL.ModificationDate = base, base.Add(time.Minute)

	noURL := models.NewEntry("", "no url", nil, []string{"x"})
	noURL.CreationDate, noURL.ModificationDate = base, base

	noTags := models.NewEntry("Tagless", "", nil, nil)
	noTags.CreationDate, noTags.ModificationDate = base, base

	return []models.Entry{withURL, noURL, noTags}
}

func TestCodableStore_InsertRetrieve(t *testing.T) {
	s := NewCodableStore[doc](filepath.Join(t.TempDir(), "doc.json"))
	ctx := context.Background()

	if err := s.Insert(ctx, doc{Name: "a", Items: []string{"1"}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, doc{Name: "b"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.Retrieve(ctx)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got.Name != "b" || len(got.Items) != 0 {
		t.Errorf("got %+v, want overwritten document", got)
	}
}

func TestCodableStore_RetrieveMissing(t *testing.T) {
	s := NewCodableStore[doc](filepath.Join(t.TempDir(), "missing.json"))
	_, err := s.Retrieve(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestCodableStore_RetrieveCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(path, []byte("{not json"), 0o644)
	s := NewCodableStore[doc](path)
	if _, err := s.Retrieve(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestCodableStore_Delete(t *testing.T) {
	s := NewCodableStore[doc](filepath.Join(t.TempDir(), "doc.json"))
	ctx := context.Background()
	if err := s.Delete(ctx); err == nil {
		t.Error("expected error deleting missing file")
	}
	_ = s.Insert(ctx, doc{Name: "a"})
	if err := s.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Retrieve(ctx); err == nil {
		t.Error("expected error after delete")
	}
}

func TestCodableStore_InsertUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	_ = os.WriteFile(blocker, []byte("x"), 0o644)
	// Parent "directory" is a regular file.
	s := NewCodableStore[doc](filepath.Join(blocker, "doc.json"))
	if err := s.Insert(context.Background(), doc{}); err == nil {
		t.Error("expected error writing below a regular file")
	}
}

func TestCodableStore_InsertUnencodable(t *testing.T) {
	s := NewCodableStore[chan int](filepath.Join(t.TempDir(), "c.json"))
	if err := s.Insert(context.Background(), make(chan int)); err == nil {
		t.Error("expected encode error")
	}
}

func TestCodableStore_OwnsContent(t *testing.T) {
	s := NewCodableStore[doc](filepath.Join(t.TempDir(), "doc.json"))
	ctx := context.Background()
	if s.OwnsContent(checksum.Sum(nil)) {
		t.Error("fresh store should own nothing")
	}
	_ = s.Insert(ctx, doc{Name: "a"})

	data, _ := os.ReadFile(s.Path())
	if !s.OwnsContent(checksum.Sum(data)) {
		t.Error("store should own its last write")
	}
	_ = s.Insert(ctx, doc{Name: "b"})
	if s.OwnsContent(checksum.Sum(data)) {
		t.Error("an older write should no longer be owned")
	}
}

func TestEntryStore_WritesEncodedDocument(t *testing.T) {
	s := NewCodableEntryStore(filepath.Join(t.TempDir(), "entries.json"))
	entries := sampleEntries(t)
	if err := s.Insert(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
	want, err := EncodeEntries(entries)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(s.Path())
	if string(got) != string(want) {
		t.Errorf("file content differs from EncodeEntries:\n%s\n---\n%s", got, want)
	}
}

func TestEntryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for n := 0; n <= 3; n++ {
		s := NewCodableEntryStore(filepath.Join(t.TempDir(), "entries.json"))
		in := sampleEntries(t)[:n]
		if err := s.Insert(ctx, in); err != nil {
			t.Fatalf("Insert(%d): %v", n, err)
		}
		got, err := s.Retrieve(ctx)
		if err != nil {
			t.Fatalf("Retrieve(%d): %v", n, err)
		}
		if len(got) != len(in) {
			t.Fatalf("len = %d, want %d", len(got), len(in))
		}
		for i := range in {
			if !got[i].Equal(in[i]) {
				t.Errorf("entry %d: got %+v, want %+v", i, got[i], in[i])
			}
		}
	}
}

func TestEntryStore_DocumentFormat(t *testing.T) {
	s := NewCodableEntryStore(filepath.Join(t.TempDir(), "entries.json"))
	entries := sampleEntries(t)
	if err := s.Insert(context.Background(), entries[1:]); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(s.Path())
	text := string(data)
	for _, key := range []string{`"id"`, `"creationDate"`, `"modificationDate"`, `"title"`, `"url": null`, `"note"`, `"tags": []`} {
		if !strings.Contains(text, key) {
			t.Errorf("document missing %s:\n%s", key, text)
		}
	}
	if !strings.HasPrefix(strings.TrimSpace(text), "[") {
		t.Errorf("document is not a JSON array")
	}
}

func TestEntryStore_RetrievalFailures(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	missing := NewCodableEntryStore(filepath.Join(dir, "missing.json"))
	_, err := missing.Retrieve(ctx)
	if !errors.Is(err, ErrRetrieval) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing: err = %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	_ = os.WriteFile(corrupt, []byte(`{"id": 1}`), 0o644)
	if _, err := NewCodableEntryStore(corrupt).Retrieve(ctx); !errors.Is(err, ErrRetrieval) {
		t.Errorf("corrupt: err = %v", err)
	}

	badURL := filepath.Join(dir, "badurl.json")
	_ = os.WriteFile(badURL, []byte(`[{"id":"7d444840-9dc0-11d1-b245-5ffdce74fad2","url":"http://[::1"}]`), 0o644)
	if _, err := NewCodableEntryStore(badURL).Retrieve(ctx); !errors.Is(err, ErrRetrieval) {
		t.Errorf("bad url: err = %v", err)
	}
}

func TestEntryStore_OwnsContent(t *testing.T) {
	s := NewCodableEntryStore(filepath.Join(t.TempDir(), "entries.json"))
	ctx := context.Background()
	_ = s.Insert(ctx, sampleEntries(t))

	data, _ := os.ReadFile(s.Path())
	if !s.OwnsContent(checksum.Sum(data)) {
		t.Error("store should own its last write")
	}
	if s.OwnsContent(checksum.Sum([]byte("[]"))) {
		t.Error("store should not own foreign content")
	}
	_ = s.Delete(ctx)
	if s.OwnsContent(checksum.Sum(data)) {
		t.Error("delete should forget the last write")
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "atomic.json")
	if err := writeFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "two" {
		t.Errorf("content = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "sub", ".notenest-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}
