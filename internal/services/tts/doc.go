// Package tts synthesizes the voiceover through an OpenAI compatible speech
// endpoint. Narrations longer than one request allows are split on sentence
// boundaries and the MP3 responses are joined in order.
package tts
