package email

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/htmltext"
)

// Renderer renders the HTML body of a message from a template ident and its data.
type Renderer interface {
	Render(ctx context.Context, ident string, data map[string]any) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, ident string, data map[string]any) (string, error)

func (f RendererFunc) Render(ctx context.Context, ident string, data map[string]any) (string, error) {
	return f(ctx, ident, data)
}

type memoState uint8

const (
	memoUnset memoState = iota
	memoExplicit
	memoComputed
)

// memo is a lazily computed body. Explicit values survive template changes, computed ones do not.
type memo struct {
	value string
	state memoState
}

func (m *memo) set(v string) {
	if v == "" {
		*m = memo{}
		return
	}
	*m = memo{value: v, state: memoExplicit}
}

func (m *memo) compute(v string) {
	*m = memo{value: v, state: memoComputed}
}

func (m *memo) invalidate() {
	if m.state == memoComputed {
		*m = memo{}
	}
}

// Message is one email before it is sent or queued.
// A Message is not safe for concurrent use.
type Message struct {
	sender *Sender

	campaign string
	queueID  string

	to, cc, bcc   []address.Address
	from, replyTo address.Address

	subject string
	html    memo
	text    memo

	attachments  []string
	template     string
	templateData map[string]any

	logEnabled   bool
	trackEnabled bool
}

// NewMessage returns an unbound message. Send and Queue need a Sender,
// so most callers use (*Sender).NewMessage instead.
func NewMessage() *Message {
	return &Message{logEnabled: true}
}

// Campaign returns the campaign id, generating a random one on first read.
func (m *Message) Campaign() string {
	if m.campaign == "" {
		m.campaign = uuid.NewString()
	}
	return m.campaign
}

func (m *Message) SetCampaign(id string) {
	m.campaign = id
}

// QueueID is the queue group id used when the message is queued.
func (m *Message) QueueID() string {
	return m.queueID
}

func (m *Message) SetQueueID(id string) {
	m.queueID = id
}

func (m *Message) To() []address.Address { return slices.Clone(m.to) }
func (m *Message) Cc() []address.Address { return slices.Clone(m.cc) }
func (m *Message) Bcc() []address.Address { return slices.Clone(m.bcc) }
func (m *Message) From() address.Address { return m.from }

func (m *Message) ReplyTo() address.Address {
	return m.replyTo
}

// SetTo replaces the recipients. v may be a string, a pair, or a list of either.
// Nil clears the list. On error the previous recipients are kept.
func (m *Message) SetTo(v any) error { return setList(&m.to, v, false) }

// AddTo appends one or more recipients.
func (m *Message) AddTo(v any) error { return setList(&m.to, v, true) }

func (m *Message) SetCc(v any) error { return setList(&m.cc, v, false) }
func (m *Message) AddCc(v any) error { return setList(&m.cc, v, true) }

func (m *Message) SetBcc(v any) error { return setList(&m.bcc, v, false) }
func (m *Message) AddBcc(v any) error { return setList(&m.bcc, v, true) }

// SetFrom sets the sender. Nil resets it so the default sender applies.
func (m *Message) SetFrom(v any) error {
	return setSingle(&m.from, v)
}

// SetReplyTo sets the reply-to address. Nil clears it.
func (m *Message) SetReplyTo(v any) error {
	return setSingle(&m.replyTo, v)
}

func setSingle(dst *address.Address, v any) error {
	if v == nil {
		*dst = address.Address{}
		return nil
	}
	a, err := address.Normalize(v)
	if err != nil {
		return err
	}
	*dst = a
	return nil
}

// setList parses v and replaces or extends dst. Malformed strings parse to a
// zero address and are dropped.
func setList(dst *[]address.Address, v any, add bool) error {
	if v == nil {
		if !add {
			*dst = nil
		}
		return nil
	}

	list, err := address.List(v)
	if err != nil {
		return err
	}
	list = slices.DeleteFunc(list, address.Address.IsZero)

	if add {
		*dst = append(*dst, list...)
		return nil
	}
	*dst = list
	return nil
}

func (m *Message) Subject() string {
	return m.subject
}

func (m *Message) SetSubject(s string) {
	m.subject = s
}

// SetHTML sets the HTML body. An empty value restores lazy rendering.
func (m *Message) SetHTML(s string) {
	m.html.set(s)
	m.text.invalidate()
}

// SetText sets the plain-text body. An empty value restores lazy conversion.
func (m *Message) SetText(s string) {
	m.text.set(s)
}

// HTML returns the HTML body. When none was set it is rendered once from the
// template and kept. Without a template ident the body is empty.
func (m *Message) HTML(ctx context.Context) (string, error) {
	if m.html.state != memoUnset {
		return m.html.value, nil
	}
	if m.template == "" {
		return "", nil
	}

	r := m.renderer()
	if r == nil {
		return "", fmt.Errorf("%w: no renderer for template %q", ErrRenderFailed, m.template)
	}

	html, err := r.Render(ctx, m.template, m.templateData)
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	m.html.compute(html)
	return html, nil
}

// Text returns the plain-text body. When none was set it is converted once
// from the HTML body and kept, so a message without any body yields "\n".
func (m *Message) Text(ctx context.Context) (string, error) {
	if m.text.state != memoUnset {
		return m.text.value, nil
	}

	html, err := m.HTML(ctx)
	if err != nil {
		return "", err
	}

	text := htmltext.Convert(html)
	m.text.compute(text)
	return text, nil
}

func (m *Message) renderer() Renderer {
	if m.sender == nil {
		return nil
	}
	return m.sender.renderer
}

func (m *Message) Template() string {
	return m.template
}

// SetTemplate sets the template ident used to render the HTML body.
func (m *Message) SetTemplate(ident string) {
	m.template = ident
	m.html.invalidate()
	m.text.invalidate()
}

func (m *Message) TemplateData() map[string]any {
	return maps.Clone(m.templateData)
}

// SetTemplateData replaces the template data.
func (m *Message) SetTemplateData(data map[string]any) {
	m.templateData = maps.Clone(data)
	m.html.invalidate()
	m.text.invalidate()
}

func (m *Message) Attachments() []string {
	return slices.Clone(m.attachments)
}

// SetAttachments appends the given attachment descriptors.
func (m *Message) SetAttachments(descriptors []string) {
	for _, d := range descriptors {
		m.AddAttachment(d)
	}
}

// AddAttachment appends a descriptor: a file path or an s3://bucket/key URL.
func (m *Message) AddAttachment(descriptor string) {
	if descriptor = strings.TrimSpace(descriptor); descriptor != "" {
		m.attachments = append(m.attachments, descriptor)
	}
}

// LogEnabled reports whether delivery attempts are written to the log repository. Defaults to true.
func (m *Message) LogEnabled() bool { return m.logEnabled }

func (m *Message) SetLogEnabled(v bool) { m.logEnabled = v }

// TrackEnabled reports whether the transport should enable open and link tracking. Defaults to false.
func (m *Message) TrackEnabled() bool { return m.trackEnabled }

func (m *Message) SetTrackEnabled(v bool) { m.trackEnabled = v }

// Send delivers the message immediately. See (*Sender).Send.
func (m *Message) Send(ctx context.Context) bool {
	if m.sender == nil {
		return false
	}
	return m.sender.Send(ctx, m)
}

// Queue creates one queue item per recipient. See (*Sender).Queue.
func (m *Message) Queue(ctx context.Context, opts ...QueueOption) error {
	if m.sender == nil {
		return ErrNoSender
	}
	return m.sender.Queue(ctx, m, opts...)
}

// SetData applies a map of fields. Keys are matched case-insensitively with
// "_" and "-" ignored, and are applied in sorted order. Unknown keys are ignored.
// Values of the wrong type are reported after every other key was applied.
//
// Recognised keys: campaign, to, cc, bcc, from, replyto, subject, html (messagehtml),
// text (messagetxt, messagetext), attachments, template (templateident),
// templatedata, logenabled, trackenabled, queueid.
func (m *Message) SetData(data map[string]any) error {
	keys := slices.Collect(maps.Keys(data))
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		if err := m.setField(normalizeKey(key), data[key]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.NewReplacer("_", "", "-", "").Replace(key)
}

func (m *Message) setField(key string, v any) error {
	switch key {
	case "to":
		return m.SetTo(v)
	case "cc":
		return m.SetCc(v)
	case "bcc":
		return m.SetBcc(v)
	case "from":
		return m.SetFrom(v)
	case "replyto":
		return m.SetReplyTo(v)
	case "campaign":
		return setString(v, m.SetCampaign)
	case "subject":
		return setString(v, m.SetSubject)
	case "html", "messagehtml":
		return setString(v, m.SetHTML)
	case "text", "messagetxt", "messagetext":
		return setString(v, m.SetText)
	case "template", "templateident":
		return setString(v, m.SetTemplate)
	case "queueid":
		return setString(v, m.SetQueueID)
	case "logenabled":
		return setBool(v, m.SetLogEnabled)
	case "trackenabled":
		return setBool(v, m.SetTrackEnabled)
	case "templatedata":
		switch d := v.(type) {
		case nil:
			m.SetTemplateData(nil)
		case map[string]any:
			m.SetTemplateData(d)
		case map[string]string:
			data := make(map[string]any, len(d))
			for k, s := range d {
				data[k] = s
			}
			m.SetTemplateData(data)
		default:
			return fmt.Errorf("%w: expected a map, got %T", ErrInvalidInput, v)
		}
	case "attachments":
		switch a := v.(type) {
		case nil:
		case string:
			m.AddAttachment(a)
		case []string:
			m.SetAttachments(a)
		case []any:
			for i, d := range a {
				s, ok := d.(string)
				if !ok {
					return fmt.Errorf("%w: attachment %d: expected a string, got %T", ErrInvalidInput, i, d)
				}
				m.AddAttachment(s)
			}
		default:
			return fmt.Errorf("%w: expected a list of strings, got %T", ErrInvalidInput, v)
		}
	}
	return nil
}

func setString(v any, set func(string)) error {
	switch s := v.(type) {
	case nil:
		set("")
	case string:
		set(s)
	default:
		return fmt.Errorf("%w: expected a string, got %T", ErrInvalidInput, v)
	}
	return nil
}

func setBool(v any, set func(bool)) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%w: expected a bool, got %T", ErrInvalidInput, v)
	}
	set(b)
	return nil
}
