// Package cli implements the timekeeper command line.
//
// Every invocation opens the database named by the configuration, loads the
// encryption descriptor and, if the store is locked, asks for the password
// before running the command. Commands only talk to the services layer.
//
//	timekeeper activity add "Write report" --start 2024-05-01T09:00:00Z --duration 2h --category Work --tags writing
//	timekeeper activity list --from 2024-05-01 --search report
//	timekeeper encryption enable
//	timekeeper backup export backup.json
//	timekeeper export csv activities.csv
//	timekeeper report --days 14
package cli
