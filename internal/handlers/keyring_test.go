package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringHandlerStoresPair(t *testing.T) {
	var gotService, gotUser, gotPassword string
	h, err := NewKeyringHandler("aws-key-rotator")
	require.NoError(t, err)
	h.setFn = func(service, user, password string) error {
		gotService, gotUser, gotPassword = service, user, password
		return nil
	}

	require.NoError(t, h.Handle(context.Background(), testKey(t)))

	assert.Equal(t, "aws-key-rotator", gotService)
	assert.Equal(t, "ci-bot", gotUser)

	var pair map[string]string
	require.NoError(t, json.Unmarshal([]byte(gotPassword), &pair))
	assert.Equal(t, "AKIANEW0001", pair["access_key_id"])
	assert.Equal(t, "wJalrXUtnFEMI/K7MDENG", pair["secret_access_key"])
}

func TestKeyringHandlerSurfacesError(t *testing.T) {
	h, err := NewKeyringHandler("aws-key-rotator")
	require.NoError(t, err)
	cause := errors.New("The name org.freedesktop.secrets was not provided")
	h.setFn = func(service, user, password string) error { return cause }

	assert.ErrorIs(t, h.Handle(context.Background(), testKey(t)), cause)
}

func TestKeyringHandlerRequiresService(t *testing.T) {
	_, err := NewKeyringHandler("")
	assert.Error(t, err)
}
