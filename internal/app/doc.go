// Package app wires the configuration, logger, metrics, services and
// router into a runnable application with graceful shutdown.
package app
