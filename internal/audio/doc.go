// Package audio provides playback sources on top of oto/v3. A Device owns
// the single oto context of the process; each Source created from it plays
// one PCM stream with its own volume, loop flag and end notification.
package audio
