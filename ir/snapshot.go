package ir

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Current snapshot schema. Increment when the IR layout changes.
const snapshotSchema uint16 = 1

var errSnapshotSchema = errors.New("ir snapshot schema mismatch")

type snapshot struct {
	Schema  uint16
	Project *Project
}

// WriteSnapshot serializes a project with msgpack. Map keys are sorted so
// equal projects produce equal bytes.
func WriteSnapshot(w io.Writer, p *Project) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	return enc.Encode(&snapshot{Schema: snapshotSchema, Project: p})
}

// ReadSnapshot decodes a project written by [WriteSnapshot].
func ReadSnapshot(r io.Reader) (*Project, error) {
	var s snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding ir snapshot: %w", err)
	}
	if s.Schema != snapshotSchema {
		return nil, fmt.Errorf("%w: got %d, want %d", errSnapshotSchema, s.Schema, snapshotSchema)
	}
	if s.Project == nil {
		return nil, errors.New("ir snapshot has no project")
	}
	if s.Project.Modules == nil {
		s.Project.Modules = make(map[string]*Module)
	}
	if s.Project.Programs == nil {
		s.Project.Programs = make(map[string]*Program)
	}
	return s.Project, nil
}
