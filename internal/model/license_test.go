package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLicenseProfile(t *testing.T) {
	name := "Aminata Diallo Sow"
	email := "aminata@example.com"
	l := License{Phone: "+221771234567", CustomerName: &name, CustomerEmail: &email}

	p := l.Profile()
	assert.Equal(t, "+221771234567", p.Phone)
	require.NotNil(t, p.FirstName)
	assert.Equal(t, "Aminata", *p.FirstName)
	assert.Equal(t, &name, p.Name)
	assert.Equal(t, &email, p.Email)
}

func TestLicenseProfileWithoutName(t *testing.T) {
	blank := "   "
	for _, l := range []License{{Phone: "+221771234567"}, {Phone: "+221771234567", CustomerName: &blank}} {
		p := l.Profile()
		assert.Nil(t, p.FirstName)
		assert.Nil(t, p.Email)
	}
}

func TestLicenseBinding(t *testing.T) {
	device := "device-a"
	unclaimed := License{}
	claimed := License{Used: true, DeviceID: &device}

	assert.False(t, unclaimed.IsClaimed())
	assert.False(t, unclaimed.BoundTo("device-a"))
	assert.True(t, claimed.IsClaimed())
	assert.True(t, claimed.BoundTo("device-a"))
	assert.False(t, claimed.BoundTo("device-b"))
}
