//go:build !unix

package tool

import "os/exec"

// killProcessGroupOnCancel keeps the exec default of killing the direct child.
func killProcessGroupOnCancel(*exec.Cmd) {}
