package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/event"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision"
)

// BuilderMock is a mock implementation of the alarm.Builder interface.
type BuilderMock struct {
	mock.Mock
}

func (m *BuilderMock) Build(ctx context.Context, res *event.Resource) ([]alarm.Candidate, error) {
	args := m.Called(ctx, res)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]alarm.Candidate), args.Error(1)
}

// PublisherMock is a mock implementation of the Publisher interface.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, detailType string, detail any) error {
	args := m.Called(ctx, detailType, detail)
	return args.Error(0)
}

// ProvisionerMock is a mock implementation of the Provisioner interface.
type ProvisionerMock struct {
	mock.Mock
}

func (m *ProvisionerMock) Provision(ctx context.Context, res *event.Resource, candidates []alarm.Candidate) (*provision.Result, error) {
	args := m.Called(ctx, res, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provision.Result), args.Error(1)
}

// NotifierMock is a mock implementation of the Notifier interface.
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyResult(ctx context.Context, res *event.Resource, result *provision.Result) error {
	args := m.Called(ctx, res, result)
	return args.Error(0)
}
