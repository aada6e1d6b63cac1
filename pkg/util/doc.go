// Package util holds small helpers shared by the simulator and CLI.
package util
