package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/config"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
)

type fakeReminderService struct {
	morningStats *services.ReminderRunStats
	morningErr   error
	eveningStats *services.ReminderRunStats
	eveningErr   error

	morningCalls int
	eveningCalls int
}

func (f *fakeReminderService) SendPaymentReminders(ctx context.Context) (*services.ReminderRunStats, error) {
	f.morningCalls++
	return f.morningStats, f.morningErr
}

func (f *fakeReminderService) SendEveningPixReminders(ctx context.Context) (*services.ReminderRunStats, error) {
	f.eveningCalls++
	return f.eveningStats, f.eveningErr
}

func TestHandleMorningRemindersTask(t *testing.T) {
	svc := &fakeReminderService{morningStats: &services.ReminderRunStats{Sent: 3, Failed: 1}}
	p := NewTaskProcessor(&config.Config{}, svc)

	err := p.HandleMorningRemindersTask(context.Background(), asynq.NewTask(TypeMorningReminders, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, svc.morningCalls)
	assert.Equal(t, 0, svc.eveningCalls)
}

func TestHandleMorningRemindersTaskError(t *testing.T) {
	svc := &fakeReminderService{morningErr: errors.New("mongo down")}
	p := NewTaskProcessor(&config.Config{}, svc)

	err := p.HandleMorningRemindersTask(context.Background(), asynq.NewTask(TypeMorningReminders, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo down")
}

func TestHandleEveningPixTask(t *testing.T) {
	svc := &fakeReminderService{eveningStats: &services.ReminderRunStats{Sent: 2}}
	p := NewTaskProcessor(&config.Config{}, svc)

	err := p.HandleEveningPixTask(context.Background(), asynq.NewTask(TypeEveningPix, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, svc.eveningCalls)
}
