//go:build unix

package procctl

import (
	"os"
	"os/exec"

	"batchshell/internal/apperrors"
)

// WrapperArg is the hidden first argument that tells this binary, when
// re-exec'd by Spawn, to run RunWrapper instead of the shell. It is chosen to
// be unmistakable as an internal sentinel, never a real submitted command.
const WrapperArg = "__batchshell_execjob__"

// Spawn creates a job born-suspended: it re-execs the current binary in
// wrapper mode, which self-stops with SIGSTOP before it ever execs into
// programPath. This avoids the race a plain Start()-then-SIGSTOP would have
// (the child could begin executing programPath before the signal arrives).
// The returned Handle's PID is stable across the later syscall.Exec, because
// exec(2) replaces the process image without changing its pid.
func Spawn(programPath string, args ...string) (*Handle, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, "resolve self executable: "+err.Error())
	}

	wrapperArgs := append([]string{WrapperArg, programPath}, args...)
	cmd := exec.Command(self, wrapperArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSpawnFailed, err.Error())
	}

	return &Handle{pid: cmd.Process.Pid, cmd: cmd}, nil
}

// RunWrapper is the wrapper-mode entry point: it must be called as the very
// first action of main() when os.Args[1] == WrapperArg, before anything else
// runs. It self-stops, then on CONTINUE execs into the real program. It never
// returns on success; a returned error means the exec itself failed.
func RunWrapper(args []string) error {
	if len(args) < 1 {
		return apperrors.Newf("execjob: missing program path")
	}

	if err := selfStop(); err != nil {
		return apperrors.Wrap(err, "execjob: self-stop failed")
	}

	target := args[0]
	absPath, err := exec.LookPath(target)
	if err != nil {
		absPath = target // let Exec report a clean ENOENT instead
	}

	execArgs := append([]string{absPath}, args[1:]...)
	return execInto(absPath, execArgs)
}
