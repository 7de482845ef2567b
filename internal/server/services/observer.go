package services

// RotationObserver is told the outcome of every rotation attempt.
type RotationObserver interface {
	ObserveRotation(o Outcome)
}

// AuthObserver is told about logins and registrations.
type AuthObserver interface {
	ObserveLogin(success bool)
	ObserveRegistration()
}

type nopObserver struct{}

func (nopObserver) ObserveRotation(Outcome) {}
func (nopObserver) ObserveLogin(bool)       {}
func (nopObserver) ObserveRegistration()    {}
