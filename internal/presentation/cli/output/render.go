package output

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tcrawf/zebra/internal/domain/frame"
	"github.com/tcrawf/zebra/internal/domain/project"
	"github.com/tcrawf/zebra/internal/domain/timesheet"
)

// ShortID renders the first uuid group, enough to eyeball a record in lists.
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}

// FormatDuration renders a duration as h:mm.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%d:%02d", h, m)
}

// FormatClock renders an instant as local wall-clock time.
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04")
}

// ActivityLabel renders an activity with its alias when present.
func ActivityLabel(a project.Activity) string {
	if a.Alias != "" {
		return fmt.Sprintf("%s (%s)", a.Name, a.Alias)
	}
	return a.Name
}

// Frame writes the one-line summary used after track mutations.
func (f *Formatter) Frame(fr frame.Frame) {
	stop := "..."
	if !fr.IsOpen() {
		stop = FormatClock(*fr.StopTime)
	}
	f.Item("Frame", ShortID(fr.UUID))
	f.Item("Activity", ActivityLabel(fr.Activity))
	f.Item("Interval", fmt.Sprintf("%s %s → %s (%s)",
		fr.StartTime.Local().Format("2006-01-02"), FormatClock(fr.StartTime), stop, FormatDuration(fr.Duration())))
	if fr.Description != "" {
		f.Item("Description", fr.Description)
	}
	if !fr.Assignment.IsIndividual() {
		f.Item("Role", fr.Assignment.String())
	}
}

// FrameTable renders frames as rows for the log listing.
func FrameTable(frames []frame.Frame) TableData {
	data := TableData{
		Columns: []TableColumn{
			{Header: "FRAME"},
			{Header: "DATE"},
			{Header: "FROM"},
			{Header: "TO"},
			{Header: "DURATION", Align: AlignRight},
			{Header: "ACTIVITY"},
			{Header: "DESCRIPTION"},
		},
	}
	for _, f := range frames {
		to := "..."
		if !f.IsOpen() {
			to = FormatClock(*f.StopTime)
		}
		data.Rows = append(data.Rows, []string{
			ShortID(f.UUID),
			f.StartTime.Local().Format("2006-01-02"),
			FormatClock(f.StartTime),
			to,
			FormatDuration(f.Duration()),
			ActivityLabel(f.Activity),
			f.Description,
		})
	}
	return data
}

// TimesheetTable renders timesheets as rows for listings.
func TimesheetTable(sheets []timesheet.Timesheet) TableData {
	data := TableData{
		Columns: []TableColumn{
			{Header: "TIMESHEET"},
			{Header: "DATE"},
			{Header: "HOURS", Align: AlignRight},
			{Header: "ACTIVITY"},
			{Header: "REMOTE"},
			{Header: "HOLD"},
			{Header: "DESCRIPTION"},
		},
	}
	for _, ts := range sheets {
		remote := "-"
		if ts.RemoteID != nil {
			remote = fmt.Sprintf("%d", *ts.RemoteID)
		}
		hold := ""
		if ts.DoNotSync {
			hold = "yes"
		}
		data.Rows = append(data.Rows, []string{
			ShortID(ts.UUID),
			ts.Date.String(),
			fmt.Sprintf("%.2f", ts.Time),
			ActivityLabel(ts.Activity),
			remote,
			hold,
			ts.Description,
		})
	}
	return data
}
