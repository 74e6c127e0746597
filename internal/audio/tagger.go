package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/handiism/tagbot/internal/model"
)

// ErrCodec wraps every failure to read or write tags.
var ErrCodec = errors.New("tag codec error")

// ErrUnsupported is returned for files the codec cannot tag.
var ErrUnsupported = fmt.Errorf("%w: unsupported file type", ErrCodec)

// Codec reads and writes the metadata of audio files.
type Codec interface {
	// ReadFields returns the non-empty field values found in the file.
	ReadFields(path string) (map[model.FieldID]string, error)

	// WriteFields sets every field in fields. Fields not in the map are
	// left alone. An empty value removes the field.
	WriteFields(path string, fields map[model.FieldID]string) error

	// SetCover replaces the front cover with a JPEG image.
	SetCover(path string, jpeg []byte) error

	// ClearCover removes every attached picture.
	ClearCover(path string) error
}

// Frame ids of the text fields. The year frame depends on the tag
// version and goes through SetYear.
var textFrames = map[model.FieldID]string{
	model.FieldTitle:       "TIT2",
	model.FieldArtist:      "TPE1",
	model.FieldAlbumArtist: "TPE2",
	model.FieldAlbum:       "TALB",
	model.FieldGenre:       "TCON",
	model.FieldPublisher:   "TPUB",
	model.FieldCopyright:   "TCOP",
	model.FieldComposer:    "TCOM",
	model.FieldDescription: "TIT3",
}

const (
	frameComment = "COMM"
	frameLyrics  = "USLT"
	frameWebsite = "WOAR"
	framePicture = "APIC"

	// tagLanguage is written into comment and lyrics frames.
	tagLanguage = "ara"
)

// Tagger is the ID3v2 Codec.
//
// Tags are always written as ID3v2.4 with UTF-8 text, which every
// current player reads and which holds Arabic text without loss.
//
// Example:
//
//	tagger := audio.NewTagger()
//	orig, err := tagger.ReadFields("song.mp3")
//	err = tagger.WriteFields("song.mp3", map[model.FieldID]string{
//	    model.FieldTitle:  "Morning",
//	    model.FieldArtist: orig[model.FieldArtist],
//	})
type Tagger struct{}

// NewTagger creates an ID3 tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// Supports reports whether the tagger can handle a file with the given
// name or MIME type.
func Supports(fileName, mimeType string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".mp3") {
		return true
	}
	switch strings.ToLower(mimeType) {
	case "audio/mpeg", "audio/mp3", "audio/mpeg3":
		return true
	}
	return false
}

func (t *Tagger) open(path string) (*id3v2.Tag, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrCodec, filepath.Base(path), err)
	}
	return tag, nil
}

func (t *Tagger) save(tag *id3v2.Tag, path string) error {
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrCodec, filepath.Base(path), err)
	}
	return nil
}

// ReadFields implements Codec.
func (t *Tagger) ReadFields(path string) (map[model.FieldID]string, error) {
	tag, err := t.open(path)
	if err != nil {
		return nil, err
	}
	defer tag.Close()

	fields := make(map[model.FieldID]string)
	put := func(f model.FieldID, v string) {
		if v = strings.TrimSpace(strings.TrimRight(v, "\x00")); v != "" {
			fields[f] = v
		}
	}

	for f, id := range textFrames {
		put(f, tag.GetTextFrame(id).Text)
	}
	put(model.FieldYear, tag.Year())

	for _, fr := range tag.GetFrames(frameComment) {
		if cf, ok := fr.(id3v2.CommentFrame); ok && cf.Text != "" {
			put(model.FieldComment, cf.Text)
			break
		}
	}
	for _, fr := range tag.GetFrames(frameLyrics) {
		if uf, ok := fr.(id3v2.UnsynchronisedLyricsFrame); ok && uf.Lyrics != "" {
			put(model.FieldLyrics, uf.Lyrics)
			break
		}
	}
	if fr := tag.GetLastFrame(frameWebsite); fr != nil {
		if uf, ok := fr.(id3v2.UnknownFrame); ok {
			put(model.FieldWebsite, string(uf.Body))
		}
	}
	return fields, nil
}

// WriteFields implements Codec.
func (t *Tagger) WriteFields(path string, fields map[model.FieldID]string) error {
	if len(fields) == 0 {
		return nil
	}
	tag, err := t.open(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	for f, value := range fields {
		setField(tag, f, value)
	}
	return t.save(tag, path)
}

func setField(tag *id3v2.Tag, f model.FieldID, value string) {
	if id, ok := textFrames[f]; ok {
		tag.DeleteFrames(id)
		if value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
		return
	}

	switch f {
	case model.FieldYear:
		tag.DeleteFrames("TYER")
		tag.DeleteFrames("TDRC")
		if value != "" {
			tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, value)
		}
	case model.FieldComment:
		tag.DeleteFrames(frameComment)
		if value != "" {
			tag.AddCommentFrame(id3v2.CommentFrame{
				Encoding: id3v2.EncodingUTF8,
				Language: tagLanguage,
				Text:     value,
			})
		}
	case model.FieldLyrics:
		tag.DeleteFrames(frameLyrics)
		if value != "" {
			tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
				Encoding: id3v2.EncodingUTF8,
				Language: tagLanguage,
				Lyrics:   value,
			})
		}
	case model.FieldWebsite:
		tag.DeleteFrames(frameWebsite)
		if value != "" {
			// URL frames carry the bare ISO-8859-1 URL, no encoding byte.
			tag.AddFrame(frameWebsite, id3v2.UnknownFrame{Body: []byte(value)})
		}
	}
}

// SetCover implements Codec.
func (t *Tagger) SetCover(path string, jpeg []byte) error {
	if len(jpeg) == 0 {
		return fmt.Errorf("%w: empty cover image", ErrCodec)
	}
	tag, err := t.open(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.DeleteFrames(framePicture)
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     jpeg,
	})
	return t.save(tag, path)
}

// ClearCover implements Codec.
func (t *Tagger) ClearCover(path string) error {
	tag, err := t.open(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	if len(tag.GetFrames(framePicture)) == 0 {
		return nil
	}
	tag.DeleteFrames(framePicture)
	return t.save(tag, path)
}

// Cover returns the front cover embedded in the file, or nil.
func (t *Tagger) Cover(path string) ([]byte, error) {
	tag, err := t.open(path)
	if err != nil {
		return nil, err
	}
	defer tag.Close()

	var fallback []byte
	for _, fr := range tag.GetFrames(framePicture) {
		pic, ok := fr.(id3v2.PictureFrame)
		if !ok {
			continue
		}
		if pic.PictureType == id3v2.PTFrontCover {
			return pic.Picture, nil
		}
		if fallback == nil {
			fallback = pic.Picture
		}
	}
	return fallback, nil
}
