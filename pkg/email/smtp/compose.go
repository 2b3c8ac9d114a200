package smtp

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/dmitrymomot/mailkit/pkg/address"
	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/email/attachment"
)

// compose builds the RFC 5322 message. Bcc recipients are left out of the headers.
func compose(env *email.Envelope, files []*attachment.File, messageID string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.Set("MIME-Version", "1.0")
	h.SetDate(date)
	h.SetSubject(env.Subject)
	h.SetMessageID(messageID)
	h.SetAddressList("From", mailAddresses(env.From))
	if len(env.To) > 0 {
		h.SetAddressList("To", mailAddresses(env.To...))
	}
	if len(env.Cc) > 0 {
		h.SetAddressList("Cc", mailAddresses(env.Cc...))
	}
	if !env.ReplyTo.IsZero() {
		h.SetAddressList("Reply-To", mailAddresses(env.ReplyTo))
	}

	var buf bytes.Buffer

	if len(files) == 0 {
		iw, err := mail.CreateInlineWriter(&buf, h)
		if err != nil {
			return nil, fmt.Errorf("create message: %w", err)
		}
		if err := writeBodies(iw, env); err != nil {
			return nil, err
		}
		if err := iw.Close(); err != nil {
			return nil, fmt.Errorf("close message: %w", err)
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("create body: %w", err)
	}
	if err := writeBodies(iw, env); err != nil {
		return nil, err
	}
	if err := iw.Close(); err != nil {
		return nil, fmt.Errorf("close body: %w", err)
	}
	for _, f := range files {
		if err := writeAttachment(mw, f); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

// writeBodies adds the text part first and the html part last, so clients
// that understand html prefer it.
func writeBodies(iw *mail.InlineWriter, env *email.Envelope) error {
	text := env.Text
	if text == "" && env.HTML == "" {
		text = "\n"
	}
	if text != "" {
		if err := writePart(iw, "text/plain", text); err != nil {
			return err
		}
	}
	if env.HTML != "" {
		if err := writePart(iw, "text/html", env.HTML); err != nil {
			return err
		}
	}
	return nil
}

func writePart(iw *mail.InlineWriter, mediaType, body string) error {
	var ih mail.InlineHeader
	ih.SetContentType(mediaType, map[string]string{"charset": "utf-8"})
	ih.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := iw.CreatePart(ih)
	if err != nil {
		return fmt.Errorf("create %s part: %w", mediaType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("write %s part: %w", mediaType, err)
	}
	return pw.Close()
}

func writeAttachment(mw *mail.Writer, f *attachment.File) error {
	var ah mail.AttachmentHeader
	ah.Set("Content-Type", f.ContentType)
	ah.SetFilename(f.Name)
	ah.Set("Content-Transfer-Encoding", "base64")

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("create attachment %q: %w", f.Name, err)
	}
	if _, err := aw.Write(f.Data); err != nil {
		return fmt.Errorf("write attachment %q: %w", f.Name, err)
	}
	return aw.Close()
}

func mailAddresses(list ...address.Address) []*mail.Address {
	out := make([]*mail.Address, 0, len(list))
	for _, a := range list {
		if a.Email == "" {
			continue
		}
		out = append(out, &mail.Address{Name: a.Name, Address: a.Email})
	}
	return out
}
