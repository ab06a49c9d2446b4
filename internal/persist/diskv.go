// Package persist keeps the event document in a local durable key-value
// store and produces export documents.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/diskv/v3"

	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// EventsKey is the fixed logical key the whole store document lives under.
const EventsKey = "events"

// Disk is a diskv-backed store for the events document. Writes go through a
// temp file and rename, so a crash never leaves a half-written document.
type Disk struct {
	d *diskv.Diskv
}

// OpenDisk prepares a diskv store rooted at basePath.
func OpenDisk(basePath string) (*Disk, error) {
	if basePath == "" {
		return nil, errors.New("persist: base path is empty")
	}
	tmpDir := filepath.Join(basePath, ".tmp")
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return nil, &model.PersistenceError{Op: "open", Err: err}
	}
	return &Disk{
		d: diskv.New(diskv.Options{
			BasePath: basePath,
			TempDir:  tmpDir,
			// Flat layout: a handful of keys, no sharding needed.
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024, // 1MB
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
	}, nil
}

// Load reads the events document. An absent document is an empty store. A
// document that cannot be decoded is copied aside under a
// "events.corrupt-<unix>" key before the error is returned, so failing open
// never destroys the only copy.
func (p *Disk) Load() (model.Days, error) {
	if !p.d.Has(EventsKey) {
		return model.Days{}, nil
	}
	data, err := p.d.Read(EventsKey)
	if err != nil {
		return nil, &model.PersistenceError{Op: "read", Err: err}
	}
	days, err := Decode(data)
	if err != nil {
		_, _ = p.keepAside(data)
		return nil, &model.PersistenceError{Op: "decode", Err: err}
	}
	return days, nil
}

// Quarantine copies the current events document to an
// "events.corrupt-<unix>" key. The store calls it when it rejects a document
// that decoded fine, so the next save does not overwrite the only copy.
func (p *Disk) Quarantine() (string, error) {
	if !p.d.Has(EventsKey) {
		return "", nil
	}
	data, err := p.d.Read(EventsKey)
	if err != nil {
		return "", &model.PersistenceError{Op: "read", Err: err}
	}
	return p.keepAside(data)
}

func (p *Disk) keepAside(data []byte) (string, error) {
	backup := fmt.Sprintf("%s.corrupt-%d", EventsKey, time.Now().Unix())
	if err := p.d.Write(backup, data); err != nil {
		appLog.Error("persist: failed to keep rejected document", err, "key", backup)
		return "", &model.PersistenceError{Op: "write", Err: err}
	}
	appLog.Warn("persist: rejected document kept aside", "key", backup)
	return backup, nil
}

// Save replaces the events document.
func (p *Disk) Save(days model.Days) error {
	data, err := json.Marshal(days)
	if err != nil {
		return &model.PersistenceError{Op: "encode", Err: err}
	}
	if err := p.d.Write(EventsKey, data); err != nil {
		return &model.PersistenceError{Op: "write", Err: err}
	}
	return nil
}

// Keys lists every key currently stored, including corrupt-document backups.
func (p *Disk) Keys() []string {
	cancel := make(chan struct{})
	defer close(cancel)
	keys := make([]string, 0)
	for k := range p.d.Keys(cancel) {
		keys = append(keys, k)
	}
	return keys
}

// Decode parses a store document. "null" decodes to an empty store.
func Decode(data []byte) (model.Days, error) {
	var days model.Days
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, err
	}
	if days == nil {
		days = model.Days{}
	}
	return days, nil
}
