package mailer

import (
	"bytes"
	"errors"
	"log"
	"net/smtp"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPurchaseConfirmation(t *testing.T) {
	m := New(Config{Host: "mailpit", Port: "1025", From: "noreply@niyyah.app", FromName: "Niyyah"})

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m.sendFn = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Nil(t, a)
		return nil
	}

	err := m.SendPurchaseConfirmation("aminata@example.com", PurchaseConfirmation{
		Name:    "Aminata <Diallo>",
		Phone:   "+221771234567",
		OrderID: "sale_123",
	})
	require.NoError(t, err)

	assert.Equal(t, "mailpit:1025", gotAddr)
	assert.Equal(t, []string{"aminata@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Niyyah - Your activation is ready\r\n")
	// html/template escapes the leading plus
	assert.Contains(t, gotMsg, "&#43;221771234567")
	assert.Contains(t, gotMsg, "sale_123")
	assert.Contains(t, gotMsg, "Aminata &lt;Diallo&gt;")
}

func TestSendFailure(t *testing.T) {
	m := New(Config{Host: "mailpit", Port: "1025", Username: "u", Password: "p"})
	m.sendFn = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.NotNil(t, a)
		return errors.New("connection refused")
	}

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	err := m.SendPurchaseConfirmation("x@example.com", PurchaseConfirmation{Phone: "+221771234567"})
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, logged.String(), "the caller logs delivery failures")
}
