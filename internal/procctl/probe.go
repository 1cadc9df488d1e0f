//go:build unix

package procctl

import "github.com/shirou/gopsutil/v3/process"

// Probe is the non-destructive liveness check spec'd for Scheduler Phase C:
// true iff pid refers to a process that exists and is not a zombie. A zombie
// still occupies the process table until reaped, so PidExists alone would
// still report a job as alive after it has already exited; Status()
// distinguishes the two.
func Probe(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return false
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}

	statuses, err := p.Status()
	if err != nil {
		// Can't classify; assume alive and let Reap settle it once the
		// process actually exits.
		return true
	}
	for _, s := range statuses {
		if s == process.Zombie {
			return false
		}
	}
	return true
}
