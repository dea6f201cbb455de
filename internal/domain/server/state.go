package server

// InstallState is the transient install status of one invocation.
// It is recomputed from the filesystem on every run and never persisted.
type InstallState int

const (
	// StateNotChecked means the executable has not been looked for yet.
	StateNotChecked InstallState = iota
	// StateReady means the executable was already present.
	StateReady
	// StateMissing means the executable is absent and must be installed.
	StateMissing
	// StateInstalling means resolution and installation are in progress.
	StateInstalling
	// StateInstalled means the install finished and the executable is in place.
	StateInstalled
	// StateInstallFailed means the install was declined or failed.
	StateInstallFailed
)

func (s InstallState) String() string {
	switch s {
	case StateNotChecked:
		return "not_checked"
	case StateReady:
		return "ready"
	case StateMissing:
		return "missing"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateInstallFailed:
		return "install_failed"
	default:
		return "unknown"
	}
}

// Runnable reports whether the server may be launched from this state.
func (s InstallState) Runnable() bool {
	return s == StateReady || s == StateInstalled
}
