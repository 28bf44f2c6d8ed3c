package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientManagerLifecycle(t *testing.T) {
	cm := NewClientManager()

	clientID, err := cm.ConnectClient(nil)
	require.NoError(t, err)
	require.NotZero(t, clientID)
	assert.True(t, cm.Exists(clientID))

	event := <-cm.GetClientEventChan()
	assert.Equal(t, ClientEventTypeConnect, event.Type)
	assert.Equal(t, clientID, event.ClientID)

	require.NoError(t, cm.AssociateSession(clientID, "s1", "p1"))
	client, err := cm.GetClient(clientID)
	require.NoError(t, err)
	assert.Equal(t, "s1", client.SessionID)
	assert.Equal(t, "p1", client.PlayerID)

	cm.DisconnectClient(clientID)
	assert.False(t, cm.Exists(clientID))

	event = <-cm.GetClientEventChan()
	assert.Equal(t, ClientEventTypeDisconnect, event.Type)
	data, ok := event.Data.(ClientDisconnectData)
	require.True(t, ok)
	assert.Equal(t, "s1", data.SessionID)
	assert.Equal(t, "p1", data.PlayerID)
}

func TestClientManagerSessionClients(t *testing.T) {
	cm := NewClientManager()

	id1, err := cm.ConnectClient(nil)
	require.NoError(t, err)
	id2, err := cm.ConnectClient(nil)
	require.NoError(t, err)
	id3, err := cm.ConnectClient(nil)
	require.NoError(t, err)

	require.NoError(t, cm.AssociateSession(id1, "s1", "p1"))
	require.NoError(t, cm.AssociateSession(id2, "s1", "p2"))
	require.NoError(t, cm.AssociateSession(id3, "s2", "p3"))

	clients := cm.GetSessionClients("s1")
	assert.Len(t, clients, 2)
	for _, c := range clients {
		assert.Equal(t, "s1", c.SessionID)
	}
	assert.Len(t, cm.GetSessionClients("missing"), 0)
}

func TestClientManagerAssociateUnknownClient(t *testing.T) {
	cm := NewClientManager()
	assert.Error(t, cm.AssociateSession(42, "s1", "p1"))
}
