package alarm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/catalog"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/disk"
)

// StoreMock is a mock implementation of the catalog.Store interface.
type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Get(ctx context.Context, service, metric string) (*catalog.Template, error) {
	args := m.Called(ctx, service, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Template), args.Error(1)
}

// DiscovererMock is a mock implementation of the Discoverer interface.
type DiscovererMock struct {
	mock.Mock
}

func (m *DiscovererMock) Discover(ctx context.Context, instanceID string) ([]disk.Descriptor, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]disk.Descriptor), args.Error(1)
}
