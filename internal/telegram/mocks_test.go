package telegram_test

import (
	"context"

	"complaintdesk/backend/internal/analytics"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

type MockDesk struct {
	mock.Mock
}

func (m *MockDesk) Summary(ctx context.Context) (analytics.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(analytics.Summary), args.Error(1)
}

func (m *MockDesk) Get(ctx context.Context, id string) (models.Complaint, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Complaint), args.Error(1)
}

type fakeUpdates struct {
	ch      chan tgbotapi.Update
	stopped bool
}

func (f *fakeUpdates) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.ch
}

func (f *fakeUpdates) StopReceivingUpdates() {
	f.stopped = true
}
