// Package speech turns text chunks into stored MP3 segments.
package speech

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

// Synthesizer converts one text chunk into an encoded audio blob.
// Concrete implementations wrap an external speech provider.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// CloudTTS implements Synthesizer with Google Cloud Text-to-Speech,
// producing MP3.
type CloudTTS struct {
	client *texttospeech.Client
	voice  *texttospeechpb.VoiceSelectionParams
	audio  *texttospeechpb.AudioConfig
}

func NewCloudTTS(client *texttospeech.Client, languageCode, gender string) *CloudTTS {
	return &CloudTTS{
		client: client,
		voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: languageCode,
			SsmlGender:   parseGender(gender),
		},
		audio: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}

func (c *CloudTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice:       c.voice,
		AudioConfig: c.audio,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.AudioContent, nil
}

func parseGender(gender string) texttospeechpb.SsmlVoiceGender {
	switch strings.ToLower(gender) {
	case "male":
		return texttospeechpb.SsmlVoiceGender_MALE
	case "neutral":
		return texttospeechpb.SsmlVoiceGender_NEUTRAL
	default:
		return texttospeechpb.SsmlVoiceGender_FEMALE
	}
}
