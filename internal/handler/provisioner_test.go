package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/alarm"
	"github.com/ab0utbla-k/cloudwatch-alarm-provisioner/internal/provision"
)

func testBuiltConfig() *alarm.BuiltConfig {
	return &alarm.BuiltConfig{
		Resource: *testResource(),
		Candidates: []alarm.Candidate{
			{AlarmName: "alarm-cpu"},
			{AlarmName: "alarm-disk"},
		},
	}
}

func TestProvisionerHandler_ProvisionsAndNotifies(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	mockNotifier := new(NotifierMock)
	h := NewProvisionerHandler(mockProvisioner, mockNotifier, testLogger())

	built := testBuiltConfig()
	result := &provision.Result{Created: []string{"alarm-cpu", "alarm-disk"}}

	mockProvisioner.On("Provision", ctxMatcher(), &built.Resource, built.Candidates).
		Return(result, nil).Once()

	mockNotifier.On("NotifyResult", ctxMatcher(), &built.Resource, result).
		Return(nil).Once()

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.NoError(t, err)

	mockProvisioner.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestProvisionerHandler_NilNotifier(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	h := NewProvisionerHandler(mockProvisioner, nil, testLogger())

	built := testBuiltConfig()

	mockProvisioner.On("Provision", ctxMatcher(), &built.Resource, built.Candidates).
		Return(&provision.Result{Created: []string{"alarm-cpu", "alarm-disk"}}, nil).Once()

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.NoError(t, err)
}

func TestProvisionerHandler_PartialFailure(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	mockNotifier := new(NotifierMock)
	h := NewProvisionerHandler(mockProvisioner, mockNotifier, testLogger())

	built := testBuiltConfig()
	result := &provision.Result{
		Created: []string{"alarm-cpu"},
		Failed:  []string{"alarm-disk"},
	}

	mockProvisioner.On("Provision", ctxMatcher(), &built.Resource, built.Candidates).
		Return(result, nil).Once()

	mockNotifier.On("NotifyResult", ctxMatcher(), &built.Resource, result).
		Return(nil).Once()

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 alarms failed")

	// The summary still goes out before the error surfaces.
	mockNotifier.AssertExpectations(t)
}

func TestProvisionerHandler_NotifyFailureIsNotFatal(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	mockNotifier := new(NotifierMock)
	h := NewProvisionerHandler(mockProvisioner, mockNotifier, testLogger())

	built := testBuiltConfig()
	result := &provision.Result{Created: []string{"alarm-cpu", "alarm-disk"}}

	mockProvisioner.On("Provision", ctxMatcher(), &built.Resource, built.Candidates).
		Return(result, nil).Once()

	mockNotifier.On("NotifyResult", ctxMatcher(), &built.Resource, result).
		Return(errors.New("topic gone")).Once()

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.NoError(t, err)
}

func TestProvisionerHandler_ZeroCandidates(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	h := NewProvisionerHandler(mockProvisioner, nil, testLogger())

	built := &alarm.BuiltConfig{Resource: *testResource()}

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.NoError(t, err)

	mockProvisioner.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything, mock.Anything)
}

func TestProvisionerHandler_ProvisionError(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	mockNotifier := new(NotifierMock)
	h := NewProvisionerHandler(mockProvisioner, mockNotifier, testLogger())

	built := testBuiltConfig()

	mockProvisioner.On("Provision", ctxMatcher(), &built.Resource, built.Candidates).
		Return(nil, errors.New("assume role denied")).Once()

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.Error(t, err)

	mockNotifier.AssertNotCalled(t, "NotifyResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestProvisionerHandler_InvalidDetail(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	h := NewProvisionerHandler(mockProvisioner, nil, testLogger())

	evt := events.CloudWatchEvent{Detail: json.RawMessage(`"not an object}`)}

	err := h.HandleRequest(context.Background(), evt)
	require.Error(t, err)

	mockProvisioner.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything, mock.Anything)
}

func TestProvisionerHandler_InvalidResource(t *testing.T) {
	mockProvisioner := new(ProvisionerMock)
	h := NewProvisionerHandler(mockProvisioner, nil, testLogger())

	built := testBuiltConfig()
	built.Resource.Account = ""

	err := h.HandleRequest(context.Background(), newCloudWatchEvent(t, built))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account")

	mockProvisioner.AssertNotCalled(t, "Provision", mock.Anything, mock.Anything, mock.Anything)
}
