// Package audio reads and writes the metadata of audio files.
//
// Tagger implements Codec for MP3 files with ID3v2 tags:
//
//	tagger := audio.NewTagger()
//	orig, err := tagger.ReadFields(path)
//	err = tagger.WriteFields(path, resolved)
//	err = tagger.SetCover(path, jpegBytes)
//
// Field mapping:
//   - title TIT2, artist TPE1, album artist TPE2, album TALB
//   - genre TCON, year TDRC, publisher TPUB, copyright TCOP
//   - composer TCOM, description TIT3
//   - comment COMM, lyrics USLT, website WOAR
//   - cover APIC (front cover)
//
// Only the tag is rewritten; audio frames are copied untouched. Every
// error wraps ErrCodec.
package audio
