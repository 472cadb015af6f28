// Package script exports missions as a shell script instead of running them,
// so a batch can be reviewed or run on another machine.
package script
