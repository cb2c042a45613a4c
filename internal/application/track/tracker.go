// Package track implements the frame state machine. It is the only
// component that opens or closes the current frame, and it enforces the
// temporal ordering rules on every transition.
package track

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application/ports"
	domainErrors "github.com/tcrawf/zebra/internal/domain/errors"
	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/user"
	"github.com/tcrawf/zebra/internal/infrastructure/logging"
	"github.com/tcrawf/zebra/internal/infrastructure/tracing"
)

// Tracker drives the Idle/Active state machine over the frame store.
type Tracker struct {
	frames ports.FrameStoragePort
	logger *logging.Logger
	tracer *tracing.Tracer
	now    func() time.Time
}

// NewTracker creates a tracker over the given frame store.
func NewTracker(frames ports.FrameStoragePort, logger *logging.Logger, tracer *tracing.Tracer) *Tracker {
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	return &Tracker{
		frames: frames,
		logger: logger,
		tracer: tracer,
		now:    time.Now,
	}
}

// StartOptions carries the parameters for opening a new frame.
type StartOptions struct {
	Activity    project.Activity
	Description string
	At          time.Time // explicit start, wins over Gap; zero derives it
	Gap         bool      // false continues from the last closed frame's stop
	Assignment  user.RoleAssignment
}

// AddOptions carries the parameters for logging an already finished interval.
type AddOptions struct {
	Activity    project.Activity
	From        time.Time
	To          time.Time
	Description string
	Assignment  user.RoleAssignment
}

// Start opens a new frame. Valid only while idle. The start time is At when
// given, else the previous frame's stop when Gap is false, else now. A start
// in the future or overlapping the previous closed frame is rejected.
func (t *Tracker) Start(ctx context.Context, opts StartOptions) (frame.Frame, error) {
	ctx, span := t.tracer.StartTrackSpan(ctx, "start")

	current, err := t.frames.Current(ctx)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if current != nil {
		err := domainErrors.FrameAlreadyStarted("frame for " + current.Activity.Name + " started at " +
			current.StartTime.Format(time.RFC3339))
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	now := t.now().UTC()
	last, err := t.frames.LastClosed(ctx)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	start := opts.At.UTC()
	if opts.At.IsZero() {
		start = now
		if !opts.Gap && last != nil {
			start = *last.StopTime
		}
	}

	if start.After(now) {
		err := domainErrors.InvalidTime("start time %s is in the future", start.Format(time.RFC3339))
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if last != nil && start.Before(*last.StopTime) {
		err := domainErrors.InvalidTime("start time %s precedes the previous frame's stop %s",
			start.Format(time.RFC3339), last.StopTime.Format(time.RFC3339))
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	f, err := frame.New(opts.Activity, start, opts.Description, opts.Assignment)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if err := t.frames.SaveCurrent(ctx, f); err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	logging.LogFrameStarted(ctx, t.logger, f.UUID.String(), f.Activity.Name, f.StartTime)
	span.SetFrame(f.UUID.String(), f.Activity.Name)
	span.End()
	return f, nil
}

// Stop closes the current frame at the given time (now when zero) and moves
// it into the permanent collection. Valid only while active.
func (t *Tracker) Stop(ctx context.Context, at time.Time) (frame.Frame, error) {
	ctx, span := t.tracer.StartTrackSpan(ctx, "stop")

	current, err := t.frames.Current(ctx)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if current == nil {
		err := domainErrors.NoFrameStarted("cannot stop: no frame is running")
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	now := t.now().UTC()
	stop := at.UTC()
	if at.IsZero() {
		stop = now
	}
	if stop.After(now) {
		err := domainErrors.InvalidTime("stop time %s is in the future", stop.Format(time.RFC3339))
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if stop.Before(current.StartTime) {
		err := domainErrors.InvalidTime("stop time %s precedes start time %s",
			stop.Format(time.RFC3339), current.StartTime.Format(time.RFC3339))
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	closed, err := current.WithStop(stop)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	// Save before clearing the slot so an interruption between the two
	// writes can never lose the frame.
	if err := t.frames.Save(ctx, closed); err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if err := t.frames.ClearCurrent(ctx); err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	logging.LogFrameStopped(ctx, t.logger, closed.UUID.String(), closed.Duration())
	span.SetFrame(closed.UUID.String(), closed.Activity.Name)
	span.End()
	return closed, nil
}

// Cancel discards the current frame without persisting it. Valid only while
// active.
func (t *Tracker) Cancel(ctx context.Context) (frame.Frame, error) {
	ctx, span := t.tracer.StartTrackSpan(ctx, "cancel")

	current, err := t.frames.Current(ctx)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if current == nil {
		err := domainErrors.NoFrameStarted("cannot cancel: no frame is running")
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	if err := t.frames.ClearCurrent(ctx); err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	logging.LogFrameCancelled(ctx, t.logger, current.UUID.String())
	span.SetFrame(current.UUID.String(), current.Activity.Name)
	span.End()
	return *current, nil
}

// Add records an already finished interval straight into the permanent
// collection, regardless of tracking state. Both bounds must lie in the past.
func (t *Tracker) Add(ctx context.Context, opts AddOptions) (frame.Frame, error) {
	ctx, span := t.tracer.StartTrackSpan(ctx, "add")

	now := t.now().UTC()
	from, to := opts.From.UTC(), opts.To.UTC()
	if from.After(now) || to.After(now) {
		err := domainErrors.InvalidTime("added frames must lie in the past")
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	f, err := frame.NewClosed(opts.Activity, from, to, opts.Description, opts.Assignment)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	if err := t.frames.Save(ctx, f); err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	t.logger.InfoContext(ctx, "frame added",
		"frame_uuid", f.UUID.String(),
		"activity", f.Activity.Name,
		"duration", f.Duration().String(),
	)
	span.SetFrame(f.UUID.String(), f.Activity.Name)
	span.End()
	return f, nil
}

// Restart opens a new frame copying the most recent closed frame's activity,
// description and assignment. The new frame gets a fresh uuid; restarting
// never resurrects the old identity.
func (t *Tracker) Restart(ctx context.Context) (frame.Frame, error) {
	current, err := t.frames.Current(ctx)
	if err != nil {
		return frame.Frame{}, err
	}
	if current != nil {
		return frame.Frame{}, domainErrors.FrameAlreadyStarted("frame for " + current.Activity.Name + " is already running")
	}

	last, err := t.frames.LastClosed(ctx)
	if err != nil {
		return frame.Frame{}, err
	}
	if last == nil {
		return frame.Frame{}, domainErrors.NotFound("no finished frame to restart")
	}

	return t.Start(ctx, StartOptions{
		Activity:    last.Activity,
		Description: last.Description,
		Gap:         true,
		Assignment:  last.Assignment,
	})
}

// Edit replaces a frame wholesale under its existing uuid, keeping the
// current-slot invariants intact: only the current frame may stay or become
// open, and a current frame that gains a stop time vacates the slot.
func (t *Tracker) Edit(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	ctx, span := t.tracer.StartTrackSpan(ctx, "edit")

	if err := f.Validate(); err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	current, err := t.frames.Current(ctx)
	if err != nil {
		span.EndWithError(err)
		return frame.Frame{}, err
	}
	isCurrent := current != nil && current.UUID == f.UUID

	if !isCurrent {
		if _, err := t.frames.Get(ctx, f.UUID); err != nil {
			span.EndWithError(err)
			return frame.Frame{}, err
		}
	}

	now := t.now().UTC()
	if f.StartTime.After(now) || (f.StopTime != nil && f.StopTime.After(now)) {
		err := domainErrors.InvalidTime("edited frame times must lie in the past")
		span.EndWithError(err)
		return frame.Frame{}, err
	}

	if f.IsOpen() {
		if !isCurrent {
			err := domainErrors.InvalidOperation("only the current frame may have no stop time")
			span.EndWithError(err)
			return frame.Frame{}, err
		}
		if err := t.frames.SaveCurrent(ctx, f); err != nil {
			span.EndWithError(err)
			return frame.Frame{}, err
		}
	} else {
		if err := t.frames.Save(ctx, f); err != nil {
			span.EndWithError(err)
			return frame.Frame{}, err
		}
		if isCurrent {
			if err := t.frames.ClearCurrent(ctx); err != nil {
				span.EndWithError(err)
				return frame.Frame{}, err
			}
		}
	}

	t.logger.InfoContext(ctx, "frame edited", "frame_uuid", f.UUID.String())
	span.SetFrame(f.UUID.String(), f.Activity.Name)
	span.End()
	return f, nil
}

// Remove deletes a frame from the permanent collection, or discards the
// current frame when its uuid is given.
func (t *Tracker) Remove(ctx context.Context, id uuid.UUID) error {
	current, err := t.frames.Current(ctx)
	if err != nil {
		return err
	}
	if current != nil && current.UUID == id {
		return t.frames.ClearCurrent(ctx)
	}
	return t.frames.Remove(ctx, id)
}

// IsStarted reports whether a frame is currently running.
func (t *Tracker) IsStarted(ctx context.Context) (bool, error) {
	current, err := t.frames.Current(ctx)
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

// Current returns the running frame, or nil while idle.
func (t *Tracker) Current(ctx context.Context) (*frame.Frame, error) {
	return t.frames.Current(ctx)
}

// Get returns one frame from the permanent collection or the current slot.
func (t *Tracker) Get(ctx context.Context, id uuid.UUID) (frame.Frame, error) {
	current, err := t.frames.Current(ctx)
	if err != nil {
		return frame.Frame{}, err
	}
	if current != nil && current.UUID == id {
		return *current, nil
	}
	return t.frames.Get(ctx, id)
}

// List returns the closed frames matching the filter.
func (t *Tracker) List(ctx context.Context, filter frame.Filter) ([]frame.Frame, error) {
	return t.frames.Filter(ctx, filter)
}
