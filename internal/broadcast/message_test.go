package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/pkg/core"
)

func TestEncodeDecode_Snapshot(t *testing.T) {
	snap := core.Snapshot{
		Tick: 99,
		Entities: map[core.EntityID]core.EntityFrame{
			1: {Position: core.Vec2{X: 2, Y: 3}, Charge: 0.8, Alive: true},
		},
	}

	data, err := Encode(SnapshotMessage(snap))
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, uint64(99), msg.Snapshot.Tick)
	assert.Equal(t, 0.8, msg.Snapshot.Entities[1].Charge)
}

func TestDecode_Intent(t *testing.T) {
	data := []byte(`{"type":"intent","intent":{"entity":2,"moveX":-1,"bounce":true}}`)

	msg, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, msg.Intent)

	intent := msg.Intent.Intent()
	assert.Equal(t, -1.0, intent.MoveDir.X)
	assert.True(t, intent.WantsBounce)
	assert.Equal(t, core.EntityID(2), msg.Intent.Entity)
}

func TestDecode_MissingType(t *testing.T) {
	_, err := Decode([]byte(`{"phase":"active"}`))
	assert.Error(t, err)
}

func TestDecode_IntentWithoutPayload(t *testing.T) {
	_, err := Decode([]byte(`{"type":"intent"}`))
	assert.Error(t, err)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestPhaseMessage(t *testing.T) {
	msg := PhaseMessage(core.PhaseResolving)
	assert.Equal(t, "phase", msg.Type)
	assert.Equal(t, "resolving", msg.Phase)
}
