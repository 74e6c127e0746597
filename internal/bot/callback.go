package bot

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/handiism/tagbot/internal/model"
)

// maxCallbackData is the Bot API limit for inline button payloads.
const maxCallbackData = 64

// Callback actions. Arguments follow, separated by ':'.
const (
	actMenu     = "menu"   // menu:<name>
	actToggle   = "tg"     // tg:<feature>
	actChannel  = "chan"   // chan:src|dst|clrsrc|clrdst
	actTemplate = "tpl"    // tpl:<op>[:<token>[:<field>]]
	actDraft    = "draft"  // draft:field:<field> | draft:save
	actRule     = "rule"   // rule:<kind>:<op>[:<id>[:<part>]]
	actSelect   = "sel"    // sel:<field> | sel:save
	actCover    = "cover"  // cover:set|view|del
	actReset    = "reset"  // reset:yes|no
	actCancel   = "cancel" // cancel
)

// Menu names.
const (
	menuMain         = "main"
	menuChannels     = "chan"
	menuTemplates    = "tpl"
	menuReplacements = "rep"
	menuFooters      = "ftr"
	menuLinks        = "links"
	menuCover        = "cover"
)

// callback is a decoded inline button payload.
type callback struct {
	action string
	args   []string
}

func (c callback) arg(i int) string {
	if i < len(c.args) {
		return c.args[i]
	}
	return ""
}

func (c callback) intArg(i int) (int, error) {
	n, err := strconv.Atoi(c.arg(i))
	if err != nil {
		return 0, fmt.Errorf("%w: bad id %q", model.ErrInvalidInput, c.arg(i))
	}
	return n, nil
}

func parseCallback(data string) callback {
	parts := strings.Split(data, ":")
	return callback{action: parts[0], args: parts[1:]}
}

// cb builds a payload. Payloads longer than the API allows are a
// programming error, since every variable part is a short token.
func cb(action string, args ...string) string {
	data := strings.Join(append([]string{action}, args...), ":")
	if len(data) > maxCallbackData {
		panic(fmt.Sprintf("callback data too long: %q", data))
	}
	return data
}

// templateToken maps a template key, which may be long and non-ASCII, to
// a short stable token that fits in a button payload.
func templateToken(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fmt.Sprintf("%08x", h.Sum32())
}

// lookupTemplate finds the key behind a token.
func lookupTemplate(snap *model.Snapshot, token string) (string, error) {
	for _, key := range snap.TemplateKeys() {
		if templateToken(key) == token {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: template no longer exists", model.ErrNotFound)
}
