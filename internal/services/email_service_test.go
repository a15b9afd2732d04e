package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yamdb/internal/config"
)

func TestNewNotifier(t *testing.T) {
	log := zap.NewNop()
	assert.IsType(t, &LogNotifier{}, NewNotifier(config.EmailConfig{}, log))
	assert.IsType(t, &LogNotifier{}, NewNotifier(config.EmailConfig{SMTPHost: "smtp", DryRun: true}, log))
	assert.IsType(t, &EmailService{}, NewNotifier(config.EmailConfig{SMTPHost: "smtp", SMTPPort: 25}, log))
}

func TestLogNotifier_Send(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Send(context.Background(), "a@x.com", "subj", "body"))
	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.com", entries[0].ContextMap()["to"])
	assert.Equal(t, "body", entries[0].ContextMap()["body"])
}

func TestEmailService_SendFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// nothing listens on port 1; either the dial error or ctx wins
	s := NewEmailService(config.EmailConfig{SMTPHost: "127.0.0.1", SMTPPort: 1, FromEmail: "noreply@yamdb.local"})
	err := s.Send(ctx, "a@x.com", "subj", "body")
	assert.Error(t, err)
}
