// Package textutil provides small text helpers: shell quoting for exported
// scripts and filename sanitizing.
package textutil
