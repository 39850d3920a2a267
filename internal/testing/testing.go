// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/services"
)

// MockMetadataSource is a test double for [services.MetadataSource]. It
// returns the queued observations in order, then repeats the last one.
type MockMetadataSource struct {
	Observations []*models.Observation
	Err          error
	Calls        int
}

func (m *MockMetadataSource) FetchCurrent(ctx context.Context) (*models.Observation, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Observations) == 0 {
		return nil, errors.New("no observations queued")
	}
	idx := m.Calls - 1
	if idx >= len(m.Observations) {
		idx = len(m.Observations) - 1
	}
	return m.Observations[idx], nil
}

// SentNotification records one Transport.Send call.
type SentNotification struct {
	Target   string
	Title    string
	Message  string
	ImageURL string
}

// MockTransport is a test double for [services.Transport] that records
// every delivery. FailTargets lists targets whose sends should error.
type MockTransport struct {
	mu          sync.Mutex
	Sent        []SentNotification
	FailTargets map[string]bool
}

func (m *MockTransport) Send(ctx context.Context, target, title, message, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailTargets[target] {
		return errors.New("send failed")
	}
	m.Sent = append(m.Sent, SentNotification{
		Target:   target,
		Title:    title,
		Message:  message,
		ImageURL: imageURL,
	})
	return nil
}

// MockCoverArt is a test double for [services.CoverArtService].
type MockCoverArt struct {
	Art     *services.CoverArt
	Err     error
	Lookups int
}

func (m *MockCoverArt) Lookup(ctx context.Context, artist, title string) (*services.CoverArt, error) {
	m.Lookups++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Art, nil
}
