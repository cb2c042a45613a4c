// Zebra CLI entry point
//
// Zebra is a personal time-tracking tool in the start/stop frame style.
// Tracked frames are grouped into quarter-hour timesheets and kept in
// sync with the Zebra timesheet service.
package main

import "github.com/tcrawf/zebra/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
