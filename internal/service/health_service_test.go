package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/popeskul/rentverify/internal/repository/mocks"
	"github.com/popeskul/rentverify/internal/service"
	servicemocks "github.com/popeskul/rentverify/internal/service/mocks"
	"github.com/popeskul/rentverify/internal/session"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthService_GetHealth_Success(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockRepo := mocks.NewMockRepository(ctrl)
	mockNotifier := servicemocks.NewMockNotifierService(ctrl)

	mr := miniredis.RunT(t)
	sessions := session.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	mockRepo.EXPECT().Ping(gomock.Any()).Return(nil)
	mockNotifier.EXPECT().Enabled().Return(true)
	mockNotifier.EXPECT().CircuitBreakerStatus().Return(service.BreakerClosed, uint32(100), uint32(5))

	status := service.NewHealthService(mockRepo, sessions, mockNotifier).GetHealth(context.Background())

	require.NotNil(t, status)
	assert.Equal(t, service.Healthy, status.Status)
	assert.Equal(t, service.StatusConnected, status.DatabaseStatus)
	assert.Equal(t, service.StatusConnected, status.SessionStoreStatus)
	assert.Equal(t, service.BreakerClosed, status.CircuitBreakerState)
	assert.Equal(t, "Requests: 100, Failures: 5 (5.0%)", status.CircuitBreakerStatus)
	assert.True(t, status.OutboundSMS)
}

func TestHealthService_GetHealth_Failure(t *testing.T) {
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	up := pingerFunc(func(context.Context) error { return nil })

	tests := []struct {
		name            string
		repoErr         error
		sessions        service.Pinger
		breaker         service.BreakerState
		wantStatus      service.HealthState
		wantDatabase    string
		wantSessions    string
		wantBreakerText string
	}{
		{
			name:            "database disconnected",
			repoErr:         errors.New("storage unavailable"),
			sessions:        up,
			breaker:         service.BreakerClosed,
			wantStatus:      service.Unhealthy,
			wantDatabase:    service.StatusDisconnected,
			wantSessions:    service.StatusConnected,
			wantBreakerText: "No requests yet",
		},
		{
			name:            "session store disconnected",
			sessions:        down,
			breaker:         service.BreakerClosed,
			wantStatus:      service.Unhealthy,
			wantDatabase:    service.StatusConnected,
			wantSessions:    service.StatusDisconnected,
			wantBreakerText: "No requests yet",
		},
		{
			name:            "open breaker only degrades",
			sessions:        up,
			breaker:         service.BreakerOpen,
			wantStatus:      service.Degraded,
			wantDatabase:    service.StatusConnected,
			wantSessions:    service.StatusConnected,
			wantBreakerText: "No requests yet",
		},
		{
			name:            "unhealthy outranks degraded",
			repoErr:         errors.New("storage unavailable"),
			sessions:        up,
			breaker:         service.BreakerOpen,
			wantStatus:      service.Unhealthy,
			wantDatabase:    service.StatusDisconnected,
			wantSessions:    service.StatusConnected,
			wantBreakerText: "No requests yet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			mockRepo := mocks.NewMockRepository(ctrl)
			mockNotifier := servicemocks.NewMockNotifierService(ctrl)

			mockRepo.EXPECT().Ping(gomock.Any()).Return(tt.repoErr)
			mockNotifier.EXPECT().Enabled().Return(false)
			mockNotifier.EXPECT().CircuitBreakerStatus().Return(tt.breaker, uint32(0), uint32(0))

			status := service.NewHealthService(mockRepo, tt.sessions, mockNotifier).GetHealth(context.Background())

			require.NotNil(t, status)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantDatabase, status.DatabaseStatus)
			assert.Equal(t, tt.wantSessions, status.SessionStoreStatus)
			assert.Equal(t, tt.breaker, status.CircuitBreakerState)
			assert.Equal(t, tt.wantBreakerText, status.CircuitBreakerStatus)
			assert.False(t, status.OutboundSMS)
		})
	}
}
