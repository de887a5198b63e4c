package http

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	instanceMu sync.Mutex
	instance   *Client
)

// Instance returns the process-wide client, creating it on the first call.
// Every call gives the client a freshly initialized handle; timeout, header
// capture and cookie path set earlier are kept.
//
// Only acquisition is synchronized. Sharing the returned client between
// goroutines is still unsupported.
func Instance() (*Client, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		c, err := NewClient()
		if err != nil {
			logrus.WithError(err).Error("Could not create request client")
			return nil, err
		}
		instance = c
		return instance, nil
	}

	if err := instance.init(); err != nil {
		instance.log.WithError(err).Error("Could not initialize transfer handle")
		return nil, err
	}
	return instance, nil
}

// resetInstance drops the process-wide client. Used by tests.
func resetInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}
