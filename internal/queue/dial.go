package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DialTimeout bounds the TCP connect and the AMQP handshake.
const DialTimeout = 3 * time.Second

// Dial opens a broker connection that gives up after DialTimeout instead
// of the client's default of about half a minute.
func Dial(url string) (*amqp.Connection, error) {
	return DialWithTimeout(url, DialTimeout)
}

// DialWithTimeout is Dial with an explicit bound.
func DialWithTimeout(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout), // deadline also covers the handshake
	})
}
