package game

// Publisher provides the ability to publish messages to subjects.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Subscriber provides the ability to subscribe to message subjects.
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}

// Broker is the combined messaging surface the game layer needs.
type Broker interface {
	Publisher
	Subscriber
}

const (
	// SubjectAnnounce carries world-wide notices: logins, logouts, shouts.
	SubjectAnnounce = "mud.announce"
	// SubjectPlayerPrefix + lowercase name is a user's private subject.
	SubjectPlayerPrefix = "mud.player."
)

// PlayerSubject returns the private subject for a user name.
func PlayerSubject(name string) string {
	return SubjectPlayerPrefix + normalize(name)
}
