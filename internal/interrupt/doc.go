// Package interrupt turns operator signals into a two-stage stop request.
//
// The first SIGINT or SIGTERM moves the Token to Requested: the scheduler
// starts no new missions and asks running encoders to quit. A second signal,
// or the escalation timeout, moves it to Forced and the scheduler returns
// without waiting for them.
package interrupt
