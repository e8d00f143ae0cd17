package googletts

// Wire-format request/response shapes for the Google Cloud Text-to-Speech
// REST API (spec §6.2). These are plain JSON DTOs; nothing in this file
// touches the key pool or HTTP transport.

// AudioEncoding enumerates the encodings the endpoint accepts.
type AudioEncoding string

const (
	EncodingMP3      AudioEncoding = "MP3"
	EncodingLINEAR16 AudioEncoding = "LINEAR16"
	EncodingOGGOpus  AudioEncoding = "OGG_OPUS"
)

// ContentType returns the audio/* MIME type for encoding, per spec §6.2:
// MP3 -> audio/mpeg, everything else -> audio/wav.
func (e AudioEncoding) ContentType() string {
	if e == EncodingMP3 {
		return "audio/mpeg"
	}
	return "audio/wav"
}

type synthesizeRequestBody struct {
	Input       inputPayload `json:"input"`
	Voice       voicePayload `json:"voice"`
	AudioConfig audioConfig  `json:"audioConfig"`
}

type inputPayload struct {
	Text string `json:"text"`
}

type voicePayload struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name,omitempty"`
}

type audioConfig struct {
	AudioEncoding   AudioEncoding `json:"audioEncoding"`
	SpeakingRate    float64       `json:"speakingRate"`
	Pitch           float64       `json:"pitch"`
	VolumeGainDb    float64       `json:"volumeGainDb"`
	SampleRateHertz int           `json:"sampleRateHertz"`
}

// synthesizeResponseBody is the success-shaped response body. Only 200
// responses are decoded into it; a 200 body that fails to decode or leaves
// AudioContent empty is treated as malformed — see classify in client.go.
type synthesizeResponseBody struct {
	AudioContent string `json:"audioContent"`
}
