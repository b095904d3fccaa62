package slack

import "encoding/json"

// Block Kit types. These are wire structs: field names and omitempty
// behavior must match what the Slack API expects and echoes back in
// interaction payloads.

// TextObject is a Block Kit text composition object (plain_text or mrkdwn).
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Option is a select/overflow menu option.
type Option struct {
	Text  *TextObject `json:"text"`
	Value string      `json:"value"`
}

// Element is an interactive block element (button, static_select, overflow,
// plain_text_input).
type Element struct {
	Type        string      `json:"type"`
	Text        *TextObject `json:"text,omitempty"`
	ActionID    string      `json:"action_id,omitempty"`
	Value       string      `json:"value,omitempty"`
	URL         string      `json:"url,omitempty"`
	Placeholder *TextObject `json:"placeholder,omitempty"`
	Options     []Option    `json:"options,omitempty"`
	Multiline   bool        `json:"multiline,omitempty"`
}

// isContextText reports whether the element is a bare text object inside a
// context block rather than an interactive element.
func (e Element) isContextText() bool {
	return e.Type == "mrkdwn" || e.Type == "plain_text"
}

// MarshalJSON writes context text elements with "text" as a plain string,
// the shape Slack requires inside context blocks. Interactive elements keep
// the default encoding.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.isContextText() {
		text := ""
		if e.Text != nil {
			text = e.Text.Text
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{e.Type, text})
	}
	type element Element
	return json.Marshal(element(e))
}

// UnmarshalJSON accepts "text" as either a text object or a plain string, so
// messages carrying context blocks survive the read-back through history and
// interaction payloads.
func (e *Element) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type        string          `json:"type"`
		Text        json.RawMessage `json:"text"`
		ActionID    string          `json:"action_id"`
		Value       string          `json:"value"`
		URL         string          `json:"url"`
		Placeholder *TextObject     `json:"placeholder"`
		Options     []Option        `json:"options"`
		Multiline   bool            `json:"multiline"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*e = Element{
		Type:        wire.Type,
		ActionID:    wire.ActionID,
		Value:       wire.Value,
		URL:         wire.URL,
		Placeholder: wire.Placeholder,
		Options:     wire.Options,
		Multiline:   wire.Multiline,
	}
	if len(wire.Text) == 0 || string(wire.Text) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(wire.Text, &s); err == nil {
		e.Text = &TextObject{Type: e.Type, Text: s}
		return nil
	}
	e.Text = new(TextObject)
	return json.Unmarshal(wire.Text, e.Text)
}

// Block is a layout block. One struct covers every block type this app
// builds or reads back (section, divider, header, context, actions, input), so
// message blocks survive the round trip through interaction payloads.
type Block struct {
	Type      string      `json:"type"`
	BlockID   string      `json:"block_id,omitempty"`
	Text      *TextObject `json:"text,omitempty"`
	Accessory *Element    `json:"accessory,omitempty"`
	Elements  []Element   `json:"elements,omitempty"`
	Element   *Element    `json:"element,omitempty"`
	Label     *TextObject `json:"label,omitempty"`
}

// ModalView is a views.open modal definition.
type ModalView struct {
	Type            string      `json:"type"`
	CallbackID      string      `json:"callback_id"`
	Title           *TextObject `json:"title"`
	Submit          *TextObject `json:"submit,omitempty"`
	Close           *TextObject `json:"close,omitempty"`
	Blocks          []Block     `json:"blocks"`
	PrivateMetadata string      `json:"private_metadata,omitempty"`
}

// Mrkdwn returns a mrkdwn text object.
func Mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

// PlainText returns a plain_text text object.
func PlainText(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text}
}

// PlainTextEmoji returns a plain_text text object with emoji rendering.
func PlainTextEmoji(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text, Emoji: true}
}

// SectionBlock returns a section block with mrkdwn text.
func SectionBlock(text string) Block {
	return Block{Type: "section", Text: Mrkdwn(text)}
}

// SectionBlockWithAccessory returns a section block with an accessory element.
func SectionBlockWithAccessory(text string, accessory *Element) Block {
	return Block{Type: "section", Text: Mrkdwn(text), Accessory: accessory}
}

// DividerBlock returns a divider block.
func DividerBlock() Block {
	return Block{Type: "divider"}
}

// HeaderBlock returns a header block.
func HeaderBlock(text string) Block {
	return Block{Type: "header", Text: PlainText(text)}
}

// ContextBlock returns a context block with the given text elements.
func ContextBlock(elements ...Element) Block {
	return Block{Type: "context", Elements: elements}
}

// MrkdwnElement returns a bare mrkdwn text element for context blocks.
func MrkdwnElement(text string) Element {
	return Element{Type: "mrkdwn", Text: Mrkdwn(text)}
}

// ActionsBlock returns an actions block containing the given elements.
func ActionsBlock(elements ...Element) Block {
	return Block{Type: "actions", Elements: elements}
}

// ButtonElement returns a button with a value payload.
func ButtonElement(text, value, actionID string) Element {
	return Element{Type: "button", Text: PlainText(text), Value: value, ActionID: actionID}
}

// EmojiButtonElement returns a button whose label is an emoji shortcode.
func EmojiButtonElement(text, value, actionID string) Element {
	return Element{Type: "button", Text: PlainTextEmoji(text), Value: value, ActionID: actionID}
}

// LinkButtonElement returns a button that opens a URL.
func LinkButtonElement(text, url, actionID string) Element {
	return Element{Type: "button", Text: PlainText(text), URL: url, ActionID: actionID}
}

// StaticSelectElement returns a static_select with the given options.
func StaticSelectElement(placeholder, actionID string, options []Option) Element {
	return Element{
		Type:        "static_select",
		Placeholder: PlainText(placeholder),
		ActionID:    actionID,
		Options:     options,
	}
}

// OverflowElement returns an overflow menu with the given options.
func OverflowElement(actionID string, options []Option) Element {
	return Element{Type: "overflow", ActionID: actionID, Options: options}
}

// SelectOption returns an option with a plain_text label.
func SelectOption(text, value string) Option {
	return Option{Text: &TextObject{Type: "plain_text", Text: text}, Value: value}
}

// InputBlock returns a plain-text input block for modals.
func InputBlock(blockID, label, actionID string, multiline bool) Block {
	return Block{
		Type:    "input",
		BlockID: blockID,
		Label:   PlainText(label),
		Element: &Element{Type: "plain_text_input", ActionID: actionID, Multiline: multiline},
	}
}
