// Package audio plays raw PCM speech through the default output device
// using oto/v3.
package audio
