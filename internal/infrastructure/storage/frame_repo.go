package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application/ports"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/frame"
)

// Compile-time check that FrameRepository implements FrameStoragePort.
var _ ports.FrameStoragePort = (*FrameRepository)(nil)

// framesDoc is the on-disk shape of the frames file: the permanent
// collection plus the single current-frame slot.
type framesDoc struct {
	Frames  []frame.Frame `json:"frames"`
	Current *frame.Frame  `json:"current,omitempty"`
}

// FrameRepository implements FrameStoragePort over one JSON document.
// The mutex serializes load-mutate-store cycles within this process;
// concurrent invocations from separate processes are out of scope.
type FrameRepository struct {
	mu   sync.Mutex
	path string
}

// NewFrameRepository creates a frame repository persisting to the given path.
func NewFrameRepository(path string) *FrameRepository {
	return &FrameRepository{path: path}
}

func (r *FrameRepository) load() (framesDoc, error) {
	var doc framesDoc
	if err := readDocument(r.path, &doc); err != nil {
		return framesDoc{}, err
	}
	return doc, nil
}

// Save persists a frame into the permanent collection, replacing any
// existing frame with the same uuid.
func (r *FrameRepository) Save(_ context.Context, f frame.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Frames {
		if doc.Frames[i].UUID == f.UUID {
			doc.Frames[i] = f
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Frames = append(doc.Frames, f)
	}
	return writeDocument(r.path, doc)
}

// Get retrieves a frame from the permanent collection by uuid.
func (r *FrameRepository) Get(_ context.Context, id uuid.UUID) (frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return frame.Frame{}, err
	}
	for _, f := range doc.Frames {
		if f.UUID == id {
			return f, nil
		}
	}
	return frame.Frame{}, domainErrors.NotFound("frame %s not found", id)
}

// Remove deletes a frame by uuid. When the uuid matches the current slot,
// the slot is cleared as well.
func (r *FrameRepository) Remove(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	found := false
	for i := range doc.Frames {
		if doc.Frames[i].UUID == id {
			doc.Frames = append(doc.Frames[:i], doc.Frames[i+1:]...)
			found = true
			break
		}
	}
	if doc.Current != nil && doc.Current.UUID == id {
		doc.Current = nil
		found = true
	}
	if !found {
		return domainErrors.NotFound("frame %s not found", id)
	}
	return writeDocument(r.path, doc)
}

// All returns the permanent collection ordered by start time.
func (r *FrameRepository) All(_ context.Context) ([]frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(doc.Frames, frame.ByStartTime(doc.Frames))
	return doc.Frames, nil
}

// Filter returns the frames matching the filter, ordered by start time.
func (r *FrameRepository) Filter(_ context.Context, filter frame.Filter) ([]frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	var matched []frame.Frame
	for _, f := range doc.Frames {
		if filter.Matches(f) {
			matched = append(matched, f)
		}
	}
	sort.SliceStable(matched, frame.ByStartTime(matched))
	return matched, nil
}

// LastClosed returns the frame with the latest stop time, or nil when the
// collection holds none.
func (r *FrameRepository) LastClosed(_ context.Context) (*frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	var last *frame.Frame
	for i := range doc.Frames {
		f := doc.Frames[i]
		if f.StopTime == nil {
			continue
		}
		if last == nil || f.StopTime.After(*last.StopTime) {
			last = &doc.Frames[i]
		}
	}
	if last == nil {
		return nil, nil
	}
	copied := *last
	return &copied, nil
}

// SaveCurrent writes the open frame into the current slot.
func (r *FrameRepository) SaveCurrent(_ context.Context, f frame.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	doc.Current = &f
	return writeDocument(r.path, doc)
}

// Current returns the frame occupying the current slot, or nil when idle.
func (r *FrameRepository) Current(_ context.Context) (*frame.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return doc.Current, nil
}

// ClearCurrent empties the current slot. Clearing an empty slot is a no-op.
func (r *FrameRepository) ClearCurrent(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if doc.Current == nil {
		return nil
	}
	doc.Current = nil
	return writeDocument(r.path, doc)
}
