package peer

import (
	"github.com/vmihailenco/msgpack/v5"
)

const controlMediaState = "media-state"

// controlMessage travels over the per-link control data channel.
type controlMessage struct {
	Type  string `msgpack:"type"`
	Audio bool   `msgpack:"audio"`
	Video bool   `msgpack:"video"`
}

// MediaState is what a remote participant reports about its own tracks.
type MediaState struct {
	Audio bool
	Video bool
}

func encodeMediaState(s MediaState) ([]byte, error) {
	return msgpack.Marshal(controlMessage{Type: controlMediaState, Audio: s.Audio, Video: s.Video})
}

func decodeControl(data []byte) (controlMessage, error) {
	var m controlMessage
	err := msgpack.Unmarshal(data, &m)
	return m, err
}
