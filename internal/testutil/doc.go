// Package testutil provides fluent builders shared by tests across packages.
package testutil
