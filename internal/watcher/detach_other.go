//go:build !unix

package watcher

import "os/exec"

func detach(*exec.Cmd) {}
