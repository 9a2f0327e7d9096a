// Package testsupport builds temp configurations and stores for tests.
package testsupport
