package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floragems/floragems-backend/pkg/config"
)

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(config.SMTPConfig{Port: 587, From: "noreply@floragems.test"}, nil)
	assert.Error(t, err)

	_, err = NewSMTPMailer(config.SMTPConfig{Host: "smtp.test", From: "noreply@floragems.test"}, nil)
	assert.Error(t, err)

	_, err = NewSMTPMailer(config.SMTPConfig{Host: "smtp.test", Port: 587}, nil)
	assert.Error(t, err)

	m, err := NewSMTPMailer(config.SMTPConfig{Host: "smtp.test", Port: 587, From: "noreply@floragems.test"}, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@floragems.test", "jane@example.com", "Password Reset", "Your temporary password is x"))

	assert.True(t, strings.HasPrefix(msg, "From: noreply@floragems.test\r\n"))
	assert.Contains(t, msg, "To: jane@example.com\r\n")
	assert.Contains(t, msg, "Subject: Password Reset\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\nYour temporary password is x"))
}
