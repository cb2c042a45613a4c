package sync

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/application/ports"
	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
	"github.com/tcrawf/zebra/internal/domain/user"
	"github.com/tcrawf/zebra/internal/infrastructure/logging"
	"github.com/tcrawf/zebra/internal/infrastructure/tracing"
)

// FrameSource is the slice of frame storage the builder reads from.
type FrameSource interface {
	Filter(ctx context.Context, filter frame.Filter) ([]frame.Frame, error)
}

// Builder derives timesheets from closed frames. Frames are grouped by
// start date, activity and role assignment; each group becomes one local
// timesheet with the group's total duration rounded up to the quarter hour.
// Frames already attributed to an existing timesheet are never counted
// twice, so building the same window repeatedly is safe.
type Builder struct {
	frames FrameSource
	locals ports.TimesheetStoragePort
	logger *logging.Logger
	tracer *tracing.Tracer
	now    func() time.Time
}

// NewBuilder creates a timesheet builder over the frame and timesheet stores.
func NewBuilder(frames FrameSource, locals ports.TimesheetStoragePort, logger *logging.Logger, tracer *tracing.Tracer) *Builder {
	if logger == nil {
		logger = logging.Default()
	}
	if tracer == nil {
		tracer = tracing.Default()
	}
	return &Builder{
		frames: frames,
		locals: locals,
		logger: logger,
		tracer: tracer,
		now:    time.Now,
	}
}

// BuildResult reports what one build pass produced.
type BuildResult struct {
	Created       []timesheet.Timesheet
	FramesUsed    int
	FramesSkipped int // already attributed to an existing timesheet
}

type buildGroup struct {
	date         timesheet.Date
	activity     project.Activity
	assignment   user.RoleAssignment
	duration     time.Duration
	frameUUIDs   []uuid.UUID
	descriptions []string
	seen         map[string]bool
}

// Build turns the closed frames whose start date falls within [from, to]
// into local timesheets. A frame booked across midnight counts towards the
// day it started on.
func (b *Builder) Build(ctx context.Context, from, to timesheet.Date) (BuildResult, error) {
	ctx, span := b.tracer.StartSyncSpan(ctx, "build")
	span.SetDateRange(from.String(), to.String())

	window := frame.Filter{
		From:           from.Time(),
		To:             to.AddDays(1).Time(),
		IncludePartial: true,
	}
	frames, err := b.frames.Filter(ctx, window)
	if err != nil {
		span.EndWithError(err)
		return BuildResult{}, err
	}

	claimed, err := b.claimedFrames(ctx)
	if err != nil {
		span.EndWithError(err)
		return BuildResult{}, err
	}

	groups := make(map[string]*buildGroup)
	var order []string
	var result BuildResult

	for _, f := range frames {
		if f.IsOpen() {
			// Still running, not bookable work yet.
			continue
		}
		if claimed[f.UUID] {
			result.FramesSkipped++
			continue
		}

		date := timesheet.DateOf(f.StartTime)
		key := date.String() + "|" + f.Activity.Key.String() + "|" + assignmentKey(f.Assignment)
		g, ok := groups[key]
		if !ok {
			g = &buildGroup{
				date:       date,
				activity:   f.Activity,
				assignment: f.Assignment,
				seen:       make(map[string]bool),
			}
			groups[key] = g
			order = append(order, key)
		}

		g.duration += f.Duration()
		g.frameUUIDs = append(g.frameUUIDs, f.UUID)
		if d := strings.TrimSpace(f.Description); d != "" && !g.seen[d] {
			g.seen[d] = true
			g.descriptions = append(g.descriptions, d)
		}
		result.FramesUsed++
	}

	for _, key := range order {
		g := groups[key]
		ts, err := timesheet.New(
			g.activity,
			g.date,
			roundUpToQuantum(g.duration),
			strings.Join(g.descriptions, timesheet.DescriptionSeparator),
			g.assignment,
			b.now().UTC(),
		)
		if err != nil {
			span.EndWithError(err)
			return result, err
		}
		ts.FrameUUIDs = g.frameUUIDs

		if err := b.locals.Save(ctx, ts); err != nil {
			span.EndWithError(err)
			return result, err
		}
		result.Created = append(result.Created, ts)
	}

	b.logger.InfoContext(ctx, "timesheets built",
		"from", from.String(),
		"to", to.String(),
		"created", len(result.Created),
		"frames_used", result.FramesUsed,
		"frames_skipped", result.FramesSkipped,
	)
	span.SetCounts(len(result.Created), result.FramesSkipped, 0)
	span.End()
	return result, nil
}

// claimedFrames collects the uuids of every frame already feeding a
// timesheet, across all dates, so rebuilt windows cannot double-book.
func (b *Builder) claimedFrames(ctx context.Context) (map[uuid.UUID]bool, error) {
	existing, err := b.locals.All(ctx)
	if err != nil {
		return nil, err
	}
	claimed := make(map[uuid.UUID]bool)
	for _, ts := range existing {
		for _, fu := range ts.FrameUUIDs {
			claimed[fu] = true
		}
	}
	return claimed, nil
}

// roundUpToQuantum converts a duration to bookable hours, rounding up to
// the next quarter hour and never below one quantum.
func roundUpToQuantum(d time.Duration) float64 {
	quarters := math.Ceil(d.Hours() / timesheet.Quantum)
	if quarters < 1 {
		quarters = 1
	}
	return quarters * timesheet.Quantum
}

func assignmentKey(a user.RoleAssignment) string {
	if role, ok := a.Role(); ok {
		return fmt.Sprintf("role:%d", role.ID)
	}
	return "individual"
}
