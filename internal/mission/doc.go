// Package mission builds encoder jobs from presets.
//
// A Builder binds one preset to the tag engine and resolves it against each
// source file, producing an immutable Mission whose argument groups are ready
// to hand to the encoder. Arrange orders a mission list and removes jobs that
// share a source and preset id.
package mission
