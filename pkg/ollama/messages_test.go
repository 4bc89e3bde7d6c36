package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareChatMessages(t *testing.T) {
	in := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "ok"},
		{Role: "user", Content: "look at this"},
		{Role: "assistant", Content: "hm"},
	}
	img := ImageData("img")
	out, err := PrepareChatMessages("be brief", in, []ImageData{img})
	require.NoError(t, err)
	require.Len(t, out, 5)
	assert.Equal(t, Message{Role: "system", Content: "be brief"}, out[0])
	assert.Equal(t, []ImageData{img}, out[3].Images)
	assert.Nil(t, out[1].Images)
	assert.Nil(t, in[2].Images, "input must not be modified")
}

func TestPrepareChatMessages_Errors(t *testing.T) {
	_, err := PrepareChatMessages("", []Message{{Content: "no role"}}, nil)
	assert.Error(t, err)

	_, err = PrepareChatMessages("sys", []Message{{Role: "assistant", Content: "x"}}, []ImageData{ImageData("i")})
	assert.Error(t, err)

	out, err := PrepareChatMessages("", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
