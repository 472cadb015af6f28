// Package scheduler runs built missions through encoder drivers.
//
// Run bounds concurrency with a weighted semaphore shared by the duration
// pre-probe and the encoders, checks every mission before it starts
// (conflicting outputs, missing encoder, existing targets), aggregates
// progress on a poll loop and removes the outputs of missions that did not
// finish. Stopping is two-stage: a requested stop cancels running encoders
// and lets them drain, a forced stop kills them and returns immediately.
package scheduler
