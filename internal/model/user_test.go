package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []Role{{ID: 1, Name: "Administrador"}, {ID: 2, Name: "editor"}}}

	assert.True(t, u.HasRole("administrador"))
	assert.True(t, u.HasRole("EDITOR"))
	assert.False(t, u.HasRole("viewer"))
	assert.Equal(t, []string{"Administrador", "editor"}, u.RoleNames())

	empty := &User{}
	assert.False(t, empty.HasRole("Administrador"))
	assert.Empty(t, empty.RoleNames())
}

func TestUser_TokenIssuedInSession(t *testing.T) {
	reclaimed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := &User{}
	assert.True(t, fresh.TokenIssuedInSession(reclaimed.Add(-24*time.Hour)))

	u := &User{SessionsValidFrom: &reclaimed}
	assert.False(t, u.TokenIssuedInSession(reclaimed.Add(-time.Second)))
	assert.True(t, u.TokenIssuedInSession(reclaimed))
	assert.True(t, u.TokenIssuedInSession(reclaimed.Add(500*time.Millisecond)))
	assert.True(t, u.TokenIssuedInSession(reclaimed.Add(time.Hour)))
}
