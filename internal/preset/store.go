package preset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DefaultFile is the preset file name inside the user's home directory.
const DefaultFile = ".clacktime.json"

var ErrIndexOutOfRange = errors.New("preset index out of range")

// Store is an ordered list of records. Names need not be unique.
type Store interface {
	List() ([]Record, error)
	Append(r Record) error
	RemoveAt(index int) error
}

// Find returns the first record called name.
func Find(s Store, name string) (Record, bool, error) {
	records, err := s.List()
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range records {
		if strings.EqualFold(r.Name, name) {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// FileStore keeps records as a JSON array and rewrites the whole file on
// every change.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) List() ([]Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.load()
}

func (fs *FileStore) Append(r Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	records, err := fs.load()
	if err != nil {
		return err
	}
	return fs.write(append(records, r))
}

func (fs *FileStore) RemoveAt(index int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	records, err := fs.load()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d", index, len(records))
	}
	return fs.write(append(records[:index], records[index+1:]...))
}

// load creates the file on first use; an empty file is an empty list.
func (fs *FileStore) load() ([]Record, error) {
	f, err := os.OpenFile(fs.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "error while opening preset file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "error while reading preset file")
	}

	records := []Record{}
	if info.Size() == 0 {
		return records, nil
	}
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, errors.Wrapf(err, "error while decoding %s", filepath.Base(fs.path))
	}
	return records, nil
}

func (fs *FileStore) write(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error while encoding presets")
	}
	if err := os.WriteFile(fs.path, data, 0644); err != nil {
		return errors.Wrap(err, "error while writing preset file")
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryStore(records ...Record) *MemoryStore {
	return &MemoryStore{records: append([]Record(nil), records...)}
}

func (ms *MemoryStore) List() ([]Record, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]Record{}, ms.records...), nil
}

func (ms *MemoryStore) Append(r Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.records = append(ms.records, r)
	return nil
}

func (ms *MemoryStore) RemoveAt(index int) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if index < 0 || index >= len(ms.records) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d", index, len(ms.records))
	}
	ms.records = append(ms.records[:index], ms.records[index+1:]...)
	return nil
}
