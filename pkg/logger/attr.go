package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Campaign records the campaign identifier under the key "campaign".
func Campaign(id string) slog.Attr {
	return slog.String("campaign", id)
}

// Recipient records a recipient address under the key "recipient".
// Accepts anything with a String method or a plain string.
func Recipient(addr any) slog.Attr {
	if addr == nil {
		return slog.Attr{}
	}
	return slog.Any("recipient", addr)
}

// Recipients records the number of recipients under the key "recipients".
func Recipients(n int) slog.Attr {
	return slog.Int("recipients", n)
}

// MessageID records the transport message identifier under the key "message_id".
// Empty ids produce an empty Attr.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

// QueueItemID records the queue item identifier under the key "queue_item_id".
func QueueItemID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("queue_item_id", id)
}

// QueueGroupID records the queue group identifier under the key "queue_group_id".
func QueueGroupID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("queue_group_id", id)
}

// Template records the template ident under the key "template".
func Template(ident string) slog.Attr {
	if ident == "" {
		return slog.Attr{}
	}
	return slog.String("template", ident)
}

// Transport records the transport name under the key "transport".
func Transport(name string) slog.Attr {
	return slog.String("transport", name)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// IP records the client IP under the key "ip".
func IP(ip string) slog.Attr {
	if ip == "" {
		return slog.Attr{}
	}
	return slog.String("ip", ip)
}

// SessionID records the session identifier under the key "session_id".
func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}
