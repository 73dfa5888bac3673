// Package pcm implements the OggPCM mapping: it decodes the stream header
// packets of an OggPCM logical stream into the audio format of an av.Stream.
//
// An OggPCM stream starts with a fixed-layout format header (magic "PCM     "),
// followed by a Vorbis comment packet and a declared number of extension
// headers, which are skipped. Every later packet carries raw samples.
package pcm
